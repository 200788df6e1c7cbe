package main

import (
	"github.com/mengelbart/yuvpipe/cmdmain"
	_ "github.com/mengelbart/yuvpipe/subcmd"
)

func main() {
	cmdmain.Main()
}
