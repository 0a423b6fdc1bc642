// Package insts provides textual instruction classification.
//
// Instructions are opaque mnemonic lines such as "add r1, r2, r3" or
// "lw r6, 0(r7)". The decoder does not resolve them to real semantics; it
// only recognizes:
//   - register tokens of the form r<digits>
//   - the first standalone integer literal (a memory displacement)
//   - the opcode family: lw/sw are memory operations, a leading b or j is a
//     branch, everything else is treated as an ALU operation
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst := decoder.Decode("sw r8, 4(r9)")
//	fmt.Printf("Op: %v, Dest: %s, Addr: %d\n", inst.Op, inst.Dest(), inst.Displacement)
package insts
