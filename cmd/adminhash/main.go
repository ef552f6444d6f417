// Command adminhash prints a bcrypt hash suitable for ADMIN_PASSWORD_HASH.
//
//	adminhash --cost 12 < password.txt
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/bus-ticket-reservation/internal/utils"
)

func main() {
	flags := pflag.NewFlagSet("adminhash", pflag.ContinueOnError)
	cost := flags.IntP("cost", "c", bcrypt.DefaultCost, "bcrypt cost")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(os.Stderr, "adminhash: read password from stdin:", err)
		os.Exit(1)
	}
	plain := strings.TrimRight(line, "\r\n")
	if plain == "" {
		fmt.Fprintln(os.Stderr, "adminhash: empty password")
		os.Exit(1)
	}
	hash, err := utils.HashPassword(plain, *cost)
	if err != nil {
		fmt.Fprintln(os.Stderr, "adminhash:", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
