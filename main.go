package main

import "github.com/ridoystarlord/dbenforce/cmd"

func main() {
	cmd.Execute()
}
