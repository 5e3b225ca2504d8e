package main

import "github.com/Alijeyrad/odonto_backend/cmd"

func main() {
	cmd.Execute()
}
