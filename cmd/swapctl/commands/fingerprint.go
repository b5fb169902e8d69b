// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package commands

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/parsdao/p2pswap/swap"
)

var showEncoding bool

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint <terms-file>",
	Short: "Compute the fingerprint the engine stores for a set of terms",
	Long: `Compute the fingerprint the engine stores for a set of terms.

The terms are normalized first: a side whose asset type is NONE has its
contract, id and quantity cleared, exactly as the engine does.

Example terms.yaml:
  expiry: 1700001000
  initiator: "0x00000000000000000000000000000000000a11ce"
  acceptor: "0x0000000000000000000000000000000000000b0b"
  initiator_asset: {type: NON_FUNGIBLE, contract: "0x...aaaa", id: 5}
  acceptor_asset: {type: NONE, value: 100}`,
	Args: cobra.ExactArgs(1),
	RunE: runFingerprint,
}

func init() {
	rootCmd.AddCommand(fingerprintCmd)
	fingerprintCmd.Flags().BoolVar(&showEncoding, "encoding", false, "Also print the canonical encoding")
}

type fingerprintOutput struct {
	Fingerprint string `json:"fingerprint"`
	Encoding    string `json:"encoding,omitempty"`
	OpenOffer   bool   `json:"openOffer"`
}

func runFingerprint(cmd *cobra.Command, args []string) error {
	s, err := LoadTerms(args[0])
	if err != nil {
		return err
	}
	s = swap.Normalize(s)
	out := fingerprintOutput{
		Fingerprint: swap.Fingerprint(&s).Hex(),
		OpenOffer:   s.IsOpenOffer(),
	}
	if showEncoding {
		out.Encoding = "0x" + hex.EncodeToString(s.Encode())
	}
	logger.Debug("computed fingerprint", "file", args[0], "fingerprint", out.Fingerprint)

	w := cmd.OutOrStdout()
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Fprintf(w, "Fingerprint: %s\n", color.CyanString(out.Fingerprint))
	fmt.Fprintf(w, "Offer:       %s %s for %s %s\n",
		s.InitiatorAssetType, s.Initiator.Hex(), s.AcceptorAssetType, acceptorLabel(&s))
	if out.Encoding != "" {
		fmt.Fprintf(w, "Encoding:    %s\n", out.Encoding)
	}
	return nil
}

func acceptorLabel(s *swap.Swap) string {
	if s.IsOpenOffer() {
		return color.YellowString("anyone")
	}
	return s.Acceptor.Hex()
}
