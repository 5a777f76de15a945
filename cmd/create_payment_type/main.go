package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"cartorio/pkg/apperr"
	"cartorio/pkg/database"
	"cartorio/pkg/payments"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("usage: go run ./cmd/create_payment_type <name>")
		os.Exit(2)
	}
	name := strings.TrimSpace(strings.Join(os.Args[1:], " "))
	if len(name) < 2 || len(name) > 255 {
		fmt.Fprintln(os.Stderr, "name must be 2-255 characters")
		os.Exit(2)
	}

	ctx := context.Background()
	gdb, _ := database.MustOpenFromEnv(ctx)
	defer database.Close(gdb)

	pt, err := payments.NewService(gdb).CreatePaymentType(ctx, name)
	if err != nil {
		if apperr.Is(err, apperr.KindBusinessRule) {
			fmt.Printf("payment type %q already exists\n", name)
			return
		}
		fmt.Fprintf(os.Stderr, "failed to create payment type: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("created payment type %q id=%d\n", pt.Name, pt.ID)
}
