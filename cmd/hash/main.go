// Package main is a utility for generating bcrypt hashes of passwords and
// vault PINs. The server stores only bcrypt hashes, never the raw values, so
// this tool is used when manually seeding or repairing user records in the
// database without running the full server. Cost 12 matches what the server
// itself uses for both secrets.
package main

import (
	"fmt"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <password-or-pin>\n", os.Args[0])
		os.Exit(1)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(os.Args[1]), 12)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(hash))
}
