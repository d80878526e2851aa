package main

import "github.com/shopwala/shopwala-golang/internal/cmd"

func main() {
	cmd.Execute()
}
