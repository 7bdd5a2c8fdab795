package main

import "os"

func main() {
	root := newRoot()

	if cmd, err := root.Command().ExecuteC(); err != nil {
		if _, ok := err.(*usageError); ok {
			cmd.Println("")
			cmd.Println(cmd.UsageString())
		}
		os.Exit(1)
	}
}
