package main

import "github.com/sigscan/sigscan/cmd/sigscan"

func main() { sigscan.Execute() }
