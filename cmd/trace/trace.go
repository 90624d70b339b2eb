package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/timewinder-dev/faultchain/vm"
	"go.starlark.net/starlark"
)

var (
	file = flag.String("file", "", "Source file (default: embedded fixture)")
	call = flag.String("call", "level1", "Entry point to call")
)

func main() {
	flag.Parse()
	var (
		prog *vm.Program
		err  error
	)
	if *file == "" {
		prog, err = vm.Fixture()
	} else {
		prog, err = vm.CompilePath(*file)
	}
	if err != nil {
		log.Fatalf("couldn't compile: %s", err)
	}
	prog.DebugPrint(os.Stdout)
	trace(prog, *call)
}

func trace(prog *vm.Program, entry string) {
	fn, ok := prog.Resolve(entry)
	if !ok {
		log.Fatalf("no callable %q in %s", entry, prog.Name)
	}
	thread := &starlark.Thread{Name: entry}
	_, err := starlark.Call(thread, fn, nil, nil)
	if err == nil {
		fmt.Println("Finished without a fault")
		return
	}
	var evalErr *starlark.EvalError
	if !errors.As(err, &evalErr) {
		log.Fatalln("Got err:", err)
	}
	fmt.Println("*******")
	fmt.Println(evalErr.Backtrace())
	fmt.Println("*******")

	t, err := prog.Call(context.Background(), entry)
	if err != nil {
		log.Fatalln("Got err:", err)
	}
	for i, f := range t.Stack.Frames {
		fmt.Printf("Frame %d: %s\n", i, f)
	}
	fmt.Printf("Fault: %s (%s)\n", t.Fault.Kind, t.Fault.Message)
}
