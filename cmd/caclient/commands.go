package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"

	flag "github.com/spf13/pflag"

	"github.com/moveguard/confidential-core/keys"
	"github.com/moveguard/confidential-core/orchestrator"
	"github.com/moveguard/confidential-core/rpc"
)

// account is set once in main after config.Load resolves cfg.Account.
var account string

func accountFromConfig() string { return account }

// signatureFlag and newSignatureFlag hold the hex-encoded wallet signatures
// keys.FromSignature derives decryption keys from (spec component 4.3). They
// are registered here, alongside config's own flags, before config.Load
// parses the process's argv.
var (
	signatureFlag    = flag.String("signature", "", "hex-encoded wallet signature the account's decryption key is derived from")
	newSignatureFlag = flag.String("newSignature", "", "hex-encoded wallet signature for the rotation target key (rotate only)")
)

func flagArgs() []string {
	return flag.Args()
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: caclient [flags] <command> [args...]")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  register <token>")
	fmt.Fprintln(os.Stderr, "  deposit <token> <amount>")
	fmt.Fprintln(os.Stderr, "  rollover <token>")
	fmt.Fprintln(os.Stderr, "  normalize <token>")
	fmt.Fprintln(os.Stderr, "  withdraw <token> <amount>")
	fmt.Fprintln(os.Stderr, "  transfer <token> <recipient> <amount>")
	fmt.Fprintln(os.Stderr, "  rotate <token>")
	fmt.Fprintln(os.Stderr, "commands that touch a confidential balance require --signature (and, for")
	fmt.Fprintln(os.Stderr, "rotate, --newSignature) to derive the account's decryption key(s).")
}

// decryptionKey derives the account's DecryptionKey from signatureFlag.
func decryptionKey() (keys.DecryptionKey, error) {
	if *signatureFlag == "" {
		return keys.DecryptionKey{}, fmt.Errorf("--signature is required for this command")
	}
	sig, err := hex.DecodeString(*signatureFlag)
	if err != nil {
		return keys.DecryptionKey{}, fmt.Errorf("invalid --signature hex: %w", err)
	}
	return keys.FromSignature(sig), nil
}

func newDecryptionKey() (keys.DecryptionKey, error) {
	if *newSignatureFlag == "" {
		return keys.DecryptionKey{}, fmt.Errorf("--newSignature is required for rotate")
	}
	sig, err := hex.DecodeString(*newSignatureFlag)
	if err != nil {
		return keys.DecryptionKey{}, fmt.Errorf("invalid --newSignature hex: %w", err)
	}
	return keys.FromSignature(sig), nil
}

// dispatch runs the named command with its positional arguments against
// orch, printing a human-readable result to stdout.
func dispatch(ctx context.Context, orch *orchestrator.Orchestrator, cmd string, args []string) error {
	acct := accountFromConfig()

	switch cmd {
	case "register":
		if len(args) != 1 {
			return fmt.Errorf("usage: register <token>")
		}
		key, err := decryptionKey()
		if err != nil {
			return err
		}
		defer key.Zeroize()
		receipt, err := orch.Register(ctx, acct, args[0], key)
		return report(receipt, err)

	case "deposit":
		if len(args) != 2 {
			return fmt.Errorf("usage: deposit <token> <amount>")
		}
		amount, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid amount: %w", err)
		}
		receipt, err := orch.Deposit(ctx, acct, args[0], amount)
		return report(receipt, err)

	case "rollover":
		if len(args) != 1 {
			return fmt.Errorf("usage: rollover <token>")
		}
		receipt, err := orch.Rollover(ctx, acct, args[0])
		return report(receipt, err)

	case "normalize":
		if len(args) != 1 {
			return fmt.Errorf("usage: normalize <token>")
		}
		key, err := decryptionKey()
		if err != nil {
			return err
		}
		receipt, err := orch.Normalize(ctx, acct, args[0], key)
		return report(receipt, err)

	case "withdraw":
		if len(args) != 2 {
			return fmt.Errorf("usage: withdraw <token> <amount>")
		}
		key, err := decryptionKey()
		if err != nil {
			return err
		}
		amount, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid amount: %w", err)
		}
		receipt, err := orch.Withdraw(ctx, acct, args[0], key, amount)
		return report(receipt, err)

	case "transfer":
		if len(args) != 3 {
			return fmt.Errorf("usage: transfer <token> <recipient> <amount>")
		}
		key, err := decryptionKey()
		if err != nil {
			return err
		}
		amount, err := strconv.ParseUint(args[2], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid amount: %w", err)
		}
		receipt, err := orch.Transfer(ctx, acct, args[0], args[1], key, amount)
		return report(receipt, err)

	case "rotate":
		if len(args) != 1 {
			return fmt.Errorf("usage: rotate <token>")
		}
		oldKey, err := decryptionKey()
		if err != nil {
			return err
		}
		newKey, err := newDecryptionKey()
		if err != nil {
			return err
		}
		receipt, err := orch.Rotate(ctx, acct, args[0], oldKey, newKey)
		return report(receipt, err)

	default:
		printUsage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func report(receipt rpc.Receipt, err error) error {
	if err != nil {
		return err
	}
	fmt.Printf("ok: txHash=%s sequenceAfter=%d\n", receipt.TxHash, receipt.SequenceAfter)
	return nil
}
