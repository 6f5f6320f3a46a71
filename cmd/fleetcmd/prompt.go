package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

type credentials struct {
	username string
	password string
	secret   string
}

// promptCredentials asks once for run-level credential fallbacks.
// Passwords are read without echo. With key auth only the username and
// optional enable secret are collected.
func promptCredentials(useKeys bool) (credentials, error) {
	var creds credentials
	reader := bufio.NewReader(os.Stdin)

	fmt.Fprint(os.Stderr, "Username: ")
	username, err := reader.ReadString('\n')
	if err != nil {
		return creds, fmt.Errorf("read username: %w", err)
	}
	creds.username = strings.TrimSpace(username)

	if !useKeys {
		fmt.Fprint(os.Stderr, "Password: ")
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return creds, fmt.Errorf("read password: %w", err)
		}
		creds.password = string(password)
	}

	fmt.Fprint(os.Stderr, "Enable/secret (Enter for none): ")
	secret, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return creds, fmt.Errorf("read secret: %w", err)
	}
	creds.secret = strings.TrimSpace(string(secret))

	return creds, nil
}
