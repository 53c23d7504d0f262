package validation

import (
	"fmt"
	"regexp"
)

// Ethereum address: 0x followed by 40 hex characters. Checksums are not
// enforced; addresses are stored as received.
var walletAddressRegex = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// ValidateWalletAddress checks the payout address format.
func ValidateWalletAddress(address string) error {
	if address == "" {
		return fmt.Errorf("wallet address cannot be empty")
	}
	if !walletAddressRegex.MatchString(address) {
		return fmt.Errorf("wallet address must be a 0x-prefixed 40 hex character address")
	}
	return nil
}

// ValidateFID checks a platform identity.
func ValidateFID(fid int64) error {
	if fid <= 0 {
		return fmt.Errorf("fid must be positive")
	}
	return nil
}
