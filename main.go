package main

import "github.com/brettwatson77/autoPLEX/cmd"

func main() {
	cmd.Execute()
}
