// Command hammock issues a single REST request and prints the response.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

func main() {
	// A missing .env is not an error.
	_ = godotenv.Load()

	var options Options

	options.AddFlags(pflag.CommandLine)

	pflag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, &options); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, options *Options) error {
	client := options.Client()
	if err := client.ValidationError(); err != nil {
		return err
	}

	req, err := options.Request()
	if err != nil {
		return err
	}

	resp, err := client.Request(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "%s\n", resp.Status)
	for name, values := range resp.Header {
		for _, v := range values {
			fmt.Fprintf(os.Stderr, "%s: %s\n", name, v)
		}
	}
	fmt.Println(resp.ContentString())

	if !resp.IsSuccess() {
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}
	return nil
}
