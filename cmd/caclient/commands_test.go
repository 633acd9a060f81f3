package main

import (
	"context"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/moveguard/confidential-core/orchestrator"
	"github.com/moveguard/confidential-core/rpc"
)

func TestDecryptionKeyRequiresSignatureFlag(t *testing.T) {
	old := *signatureFlag
	defer func() { *signatureFlag = old }()
	*signatureFlag = ""

	_, err := decryptionKey()
	require.Error(t, err)
}

func TestDecryptionKeyDerivesFromHexSignature(t *testing.T) {
	old := *signatureFlag
	defer func() { *signatureFlag = old }()
	*signatureFlag = hex.EncodeToString([]byte("a wallet signature"))

	k, err := decryptionKey()
	require.NoError(t, err)
	require.NotNil(t, k.Scalar())
}

func TestDecryptionKeyRejectsInvalidHex(t *testing.T) {
	old := *signatureFlag
	defer func() { *signatureFlag = old }()
	*signatureFlag = "not-hex"

	_, err := decryptionKey()
	require.Error(t, err)
}

func TestDispatchRejectsUnknownCommand(t *testing.T) {
	account = "alice"
	err := dispatch(context.Background(), &orchestrator.Orchestrator{}, "bogus", nil)
	require.Error(t, err)
}

func TestDispatchRejectsWrongArgCount(t *testing.T) {
	account = "alice"
	err := dispatch(context.Background(), &orchestrator.Orchestrator{}, "deposit", []string{"usdc"})
	require.Error(t, err)
}

func TestReportFormatsSuccess(t *testing.T) {
	require.NoError(t, report(rpc.Receipt{TxHash: "abc", SequenceAfter: 3}, nil))
}

func TestReportPropagatesError(t *testing.T) {
	require.Error(t, report(rpc.Receipt{}, context.DeadlineExceeded))
}
