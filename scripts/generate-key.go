// Package main is a development utility for generating the two secrets the
// server needs at startup: the vault master secret the envelope key is
// derived from, and the JWT signing secret. It prints ready-to-export
// environment variable assignments so developers can bootstrap a local
// instance quickly. Do not reuse generated values across environments, and
// never commit them: rotating the vault master secret makes every stored
// envelope undecryptable.
package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"
)

func main() {
	fmt.Println("==========================================================")
	fmt.Println("Secrets Generated")
	fmt.Println("==========================================================")
	fmt.Printf("\nexport VAULT_MASTER_SECRET=%s\n", randomSecret())
	fmt.Printf("export APR_JWT_SECRET=%s\n", randomSecret())
	fmt.Println("\n==========================================================")
	fmt.Println("Add these to your shell or secret store before starting")
	fmt.Println("the server. Losing VAULT_MASTER_SECRET loses the vault.")
	fmt.Println("==========================================================")
}

func randomSecret() string {
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		log.Fatal(err)
	}
	return base64.RawURLEncoding.EncodeToString(randomBytes)
}
