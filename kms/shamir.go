package kms

import (
	"errors"
	"fmt"

	"github.com/hashicorp/vault/shamir"
)

// Master seed bootstrap via Shamir's Secret Sharing. The seed is split into
// shares distributed to administrators; a threshold of shares reconstructs
// it at startup, so the seed itself never rests on disk.

// SplitSeed splits a master seed into shares with the given threshold.
// Each share is handed to a different administrator.
func SplitSeed(masterSeed []byte, shares, threshold int) ([][]byte, error) {
	if len(masterSeed) < 32 {
		return nil, errors.New("master seed must be at least 32 bytes")
	}
	if threshold < 2 {
		return nil, errors.New("threshold must be at least 2")
	}
	if shares < threshold {
		return nil, fmt.Errorf("share count %d is below threshold %d", shares, threshold)
	}

	parts, err := shamir.Split(masterSeed, shares, threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to split master seed: %w", err)
	}
	return parts, nil
}

// CombineSeed reconstructs the master seed from at least a threshold number
// of shares.
func CombineSeed(shares [][]byte) ([]byte, error) {
	if len(shares) < 2 {
		return nil, errors.New("at least 2 shares are required")
	}

	masterSeed, err := shamir.Combine(shares)
	if err != nil {
		return nil, fmt.Errorf("failed to combine shares: %w", err)
	}
	if len(masterSeed) < 32 {
		return nil, errors.New("combined seed is too short, shares are likely inconsistent")
	}
	return masterSeed, nil
}
