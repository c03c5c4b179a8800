package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	Products(ctx context.Context) error
	AddProduct(ctx context.Context) error
	DeleteProduct(ctx context.Context) error
	Refresh(ctx context.Context) error
	Sell(ctx context.Context) error
	Sales(ctx context.Context) error
	LowStock(ctx context.Context) error
	Summary(ctx context.Context) error
	Pending(ctx context.Context) error
	Sync(ctx context.Context) error
	Status(ctx context.Context) error
	Update(ctx context.Context) error
	Archive(ctx context.Context) error
}

const helpText = "Available commands: (p)roducts, addproduct, deleteproduct, refresh, (s)ell, sales, lowstock, " +
	"summary, pending, sync, status, update, archive, exit"

// runREPL starts a simple read–eval–print loop for the posmart CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. Unknown commands are reported back to the
// user. The loop exits on EOF, when ctx is done, or when the user types
// "exit" or "quit". The prompt, which shows statusFn, is only printed on an
// interactive terminal.
//
// Errors returned by command handlers are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		if isTerminal() {
			printlnFn(fmt.Sprintf("pos %s > ", statusFn()))
		}

		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		var cmdErr error
		switch cmd {
		case "help":
			printlnFn(helpText)

		case "p", "products":
			cmdErr = a.Products(ctx)

		case "addproduct":
			cmdErr = a.AddProduct(ctx)

		case "deleteproduct":
			cmdErr = a.DeleteProduct(ctx)

		case "refresh":
			cmdErr = a.Refresh(ctx)

		case "s", "sell":
			cmdErr = a.Sell(ctx)

		case "sales":
			cmdErr = a.Sales(ctx)

		case "lowstock":
			cmdErr = a.LowStock(ctx)

		case "summary":
			cmdErr = a.Summary(ctx)

		case "pending":
			cmdErr = a.Pending(ctx)

		case "sync":
			cmdErr = a.Sync(ctx)

		case "status":
			cmdErr = a.Status(ctx)

		case "update":
			cmdErr = a.Update(ctx)

		case "archive":
			cmdErr = a.Archive(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", cmdErr)
		}
	}
}
