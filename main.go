package main

import "espotifai/cmd"

func main() {
	cmd.Execute()
}
