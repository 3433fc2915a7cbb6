package main

import "github.com/ValentinKolb/bolthelper/cmd"

func main() {
	cmd.Execute()
}
