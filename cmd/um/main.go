package main

import (
	"context"
	"log"
	"os"

	"github.com/cbirsen/um-vm/pkg/vm"
	"github.com/spf13/cobra"
)

func main() {
	log.SetFlags(0)

	var trace bool

	rootCmd := &cobra.Command{
		Use:   "um <program>",
		Short: "Run a 32-bit segmented-memory machine-code program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], trace)
		},
		SilenceUsage: true,
	}
	rootCmd.Flags().BoolVar(&trace, "trace", false, "log each fetched instruction before executing it")

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func run(filename string, trace bool) error {
	fp, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer fp.Close()

	program, err := vm.LoadProgram(fp)
	if err != nil {
		return err
	}

	machine := vm.New(program, vm.NewStdIO(os.Stdin, os.Stdout))
	if trace {
		machine.Tracer = func(pc uint32, word uint32) {
			log.Printf("um: pc=%d %#08x %s", pc, word, vm.Disassemble(word))
		}
	}

	return machine.Run(context.Background())
}
