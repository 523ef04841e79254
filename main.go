package main

import "github.com/jmehdipour/balance-batch/cmd"

func main() {
	cmd.Execute()
}
