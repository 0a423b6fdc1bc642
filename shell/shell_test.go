package shell_test

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gbytes"

	"github.com/sarchlab/pipesim/driver"
	"github.com/sarchlab/pipesim/shell"
	"github.com/sarchlab/pipesim/timing/core"
)

var _ = Describe("Shell", func() {
	var (
		ctx    context.Context
		worker *driver.Worker
		out    *gbytes.Buffer
		sh     *shell.Shell
	)

	exec := func(line string) {
		quit, err := sh.Execute(ctx, line)
		Expect(err).NotTo(HaveOccurred())
		Expect(quit).To(BeFalse())
	}

	BeforeEach(func() {
		ctx = context.Background()
		worker = driver.NewWorker(core.NewCore())
		out = gbytes.NewBuffer()
		sh = shell.New(worker, out, shell.WithInterval(time.Millisecond))
	})

	AfterEach(func() {
		_, _ = sh.Execute(ctx, "quit")
		worker.Close()
	})

	Describe("help", func() {
		It("should list the commands", func() {
			exec("help")

			Expect(out).To(gbytes.Say("Available commands:"))
			Expect(out).To(gbytes.Say("load \\[file\\]"))
			Expect(out).To(gbytes.Say("status"))
		})
	})

	It("should reject unknown commands", func() {
		exec("fly")
		Expect(out).To(gbytes.Say(`Unknown command. Type "help" for available commands`))
	})

	It("should ignore blank lines", func() {
		exec("   ")
		Expect(out.Contents()).To(BeEmpty())
	})

	Describe("load", func() {
		It("should load the example program without a file", func() {
			exec("load")
			Expect(out).To(gbytes.Say("Loaded example program"))
		})

		It("should load a program file", func() {
			dir, err := os.MkdirTemp("", "shell-test")
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(os.RemoveAll, dir)

			path := filepath.Join(dir, "example1.asm")
			Expect(os.WriteFile(path, []byte("add r1, r2, r3\n# done\nj end\n"), 0644)).To(Succeed())

			exec("load " + path)

			Expect(out).To(gbytes.Say("Loaded 2 instructions from " + regexp.QuoteMeta(path)))
		})

		It("should report a missing file", func() {
			_, err := sh.Execute(ctx, "load /no/such/program.asm")
			Expect(err).To(MatchError(os.ErrNotExist))
		})
	})

	Describe("step", func() {
		It("should report the instruction in Fetch", func() {
			exec("load")
			exec("step")

			Expect(out).To(gbytes.Say("Executed one cycle. Current instruction: add r1, r2, r3"))
		})

		It("should report None without a program", func() {
			exec("step")
			Expect(out).To(gbytes.Say("Current instruction: None"))
		})

		It("should log L1D line changes", func() {
			exec("load")
			exec("step 6")
			Expect(out).To(gbytes.Say("Cache line 0: Activated"))

			exec("step 2")
			Expect(out).To(gbytes.Say("Cache line 0: Modified"))
		})

		It("should reject a bad cycle count", func() {
			_, err := sh.Execute(ctx, "step zero")
			Expect(err).To(MatchError(shell.ErrUsage))

			_, err = sh.Execute(ctx, "step -2")
			Expect(err).To(MatchError(shell.ErrUsage))
		})
	})

	Describe("reset", func() {
		It("should reset the core", func() {
			exec("load")
			exec("step 3")
			exec("reset")
			exec("status")

			Expect(out).To(gbytes.Say("CPU state reset"))
			Expect(out).To(gbytes.Say(`Cycle: 0 \(stopped\)`))
		})
	})

	Describe("status", func() {
		It("should show stages, metrics and caches", func() {
			exec("load")
			exec("step 3")
			exec("status")

			Expect(out).To(gbytes.Say(`Cycle: 3 \(stopped\)`))
			Expect(out).To(gbytes.Say("Current instruction: lw r6, 0\\(r7\\)"))
			Expect(out).To(gbytes.Say("Decode +sub r4, r1, r5 +false +RAW Hazard"))
			Expect(out).To(gbytes.Say("L1D"))
		})
	})

	Describe("run and stop", func() {
		It("should run the program to completion", func() {
			exec("load")
			exec("run")

			Expect(out).To(gbytes.Say("Started program execution"))
			Eventually(out).Should(gbytes.Say("Program finished after 11 cycles"))
			Eventually(sh.Running).Should(BeFalse())
		})

		It("should not start a second loop", func() {
			sh = shell.New(worker, out, shell.WithInterval(time.Hour))

			exec("load")
			exec("run")
			exec("run")
			Expect(out).To(gbytes.Say("Program already running"))
			Expect(sh.Running()).To(BeTrue())

			exec("stop")
			Expect(out).To(gbytes.Say("Stopped program execution"))
			Expect(sh.Running()).To(BeFalse())
		})

		It("should allow running again after the loop finished", func() {
			exec("load")
			exec("run")
			Expect(sh.Wait(ctx)).To(Succeed())

			exec("load")
			exec("run")
			Eventually(out).Should(gbytes.Say("Program finished after 11 cycles"))
		})
	})

	Describe("quit", func() {
		It("should ask the session to end", func() {
			quit, err := sh.Execute(ctx, "exit")

			Expect(err).NotTo(HaveOccurred())
			Expect(quit).To(BeTrue())
		})
	})

	Describe("Run", func() {
		It("should read commands until quit", func() {
			in := strings.NewReader("load\nstep\nstep x\nquit\nstep\n")

			Expect(sh.Run(ctx, in)).To(Succeed())

			Expect(out).To(gbytes.Say(shell.Prompt))
			Expect(out).To(gbytes.Say("Loaded example program"))
			Expect(out).To(gbytes.Say("Executed one cycle"))
			Expect(out).To(gbytes.Say("Error: usage"))
			Expect(out).NotTo(gbytes.Say("Executed one cycle"))
		})

		It("should end at end of input", func() {
			Expect(sh.Run(ctx, strings.NewReader("help\n"))).To(Succeed())
			Expect(out).To(gbytes.Say("Available commands:"))
		})
	})
})
