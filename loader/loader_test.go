package loader_test

import (
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pipesim/loader"
)

var _ = Describe("Program Loader", func() {
	var tempDir string

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "program-loader-test")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		_ = os.RemoveAll(tempDir)
	})

	writeProgram := func(name, text string) string {
		path := filepath.Join(tempDir, name)
		Expect(os.WriteFile(path, []byte(text), 0o644)).To(Succeed())
		return path
	}

	Describe("Parse", func() {
		It("should keep one instruction per line", func() {
			prog, err := loader.Parse(strings.NewReader("add r1, r2, r3\nlw r4, 8(r5)\n"))

			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Instructions).To(Equal([]string{"add r1, r2, r3", "lw r4, 8(r5)"}))
			Expect(prog.Len()).To(Equal(2))
		})

		It("should strip blank lines and comments", func() {
			text := `# header comment
; another one

  add r1, r2, r3   // trailing
sw r8, 4(r9) # store
// done
`
			prog, err := loader.Parse(strings.NewReader(text))

			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Instructions).To(Equal([]string{"add r1, r2, r3", "sw r8, 4(r9)"}))
		})

		It("should reject a program with only comments", func() {
			_, err := loader.Parse(strings.NewReader("# nothing\n\n; here\n"))
			Expect(err).To(MatchError(loader.ErrEmptyProgram))
		})
	})

	Describe("Load", func() {
		It("should load a program file and record its source", func() {
			path := writeProgram("example1.asm", "add r1, r2, r3\nbeq r1, r0, done\n")

			prog, err := loader.Load(path)

			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Source).To(Equal(path))
			Expect(prog.Instructions).To(HaveLen(2))
		})

		It("should return error for non-existent file", func() {
			_, err := loader.Load(filepath.Join(tempDir, "missing.asm"))
			Expect(err).To(MatchError(os.ErrNotExist))
		})

		It("should wrap the empty program error with the path", func() {
			path := writeProgram("empty.asm", "")

			_, err := loader.Load(path)

			Expect(err).To(MatchError(loader.ErrEmptyProgram))
			Expect(err.Error()).To(ContainSubstring("empty.asm"))
		})
	})

	Describe("ExampleProgram", func() {
		It("should hold the five-instruction example", func() {
			prog := loader.ExampleProgram()

			Expect(prog.Len()).To(Equal(5))
			Expect(prog.Instructions[0]).To(Equal("add r1, r2, r3"))
			Expect(prog.Instructions[4]).To(Equal("beq r10, r11, label"))
		})
	})
})
