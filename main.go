package main

import "github.com/KaramelBytes/studentlens/cmd"

func main() {
	cmd.Execute()
}
