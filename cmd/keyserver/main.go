package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/tcforge/workload-encryption/api/keyhandler"
	"github.com/tcforge/workload-encryption/attestation"
	"github.com/tcforge/workload-encryption/cmd/flags"
	"github.com/tcforge/workload-encryption/common"
	"github.com/tcforge/workload-encryption/httpserver"
	"github.com/tcforge/workload-encryption/interfaces"
	"github.com/tcforge/workload-encryption/kms"
	"github.com/tcforge/workload-encryption/metrics"
	"github.com/tcforge/workload-encryption/storage"
)

var keyServiceLogFlag = flags.LogServiceFlagFn("keyserver")

var listenAddrFlag = &cli.StringFlag{
	Name:  "listen-addr",
	Value: "127.0.0.1:8080",
	Usage: "address to listen on for the key API",
}

var masterSeedFlag = &cli.StringFlag{
	Name:  "master-seed",
	Usage: "master seed as a hex string (at least 64 hex chars)",
}

var seedShareFlag = &cli.StringSliceFlag{
	Name:  "seed-share",
	Usage: "path to a hex-encoded Shamir share file, repeatable; a threshold of shares reconstructs the master seed",
}

var keyDirFlag = &cli.StringFlag{
	Name:  "key-dir",
	Usage: "directory for sealed worker key pairs; keys are regenerated on restart when unset",
}

var sharesFlag = &cli.IntFlag{
	Name:  "shares",
	Value: 5,
	Usage: "number of Shamir shares to generate",
}

var thresholdFlag = &cli.IntFlag{
	Name:  "threshold",
	Value: 3,
	Usage: "number of shares required to reconstruct the seed",
}

var outDirFlag = &cli.StringFlag{
	Name:  "out-dir",
	Value: ".",
	Usage: "directory to write share files to",
}

func main() {
	app := &cli.App{
		Name:           "keyserver",
		Usage:          "Serve attested workload encryption keys",
		DefaultCommand: "serve",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Run the key service",
				Flags: append([]cli.Flag{
					listenAddrFlag,
					masterSeedFlag,
					seedShareFlag,
					keyDirFlag,
					flags.StorageFlag,
					flags.AttestationTypeFlag,
					keyServiceLogFlag,
				}, flags.CommonFlags...),
				Action: runServe,
			},
			{
				Name:  "generate-seed",
				Usage: "Generate a master seed and split it into Shamir shares",
				Flags: []cli.Flag{
					sharesFlag,
					thresholdFlag,
					outDirFlag,
				},
				Action: runGenerateSeed,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runServe(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)

	masterSeed, err := resolveMasterSeed(cCtx)
	if err != nil {
		logger.Error("Failed to resolve master seed", "err", err)
		return err
	}

	kmsImpl, err := kms.NewSimpleKMS(masterSeed)
	if err != nil {
		logger.Error("Failed to initialize KMS", "err", err)
		return err
	}

	attType, provider, err := attestationProvider(cCtx.String(flags.AttestationTypeFlag.Name))
	if err != nil {
		logger.Error("Failed to configure attestation", "err", err)
		return err
	}
	kmsImpl = kmsImpl.WithAttestationProvider(provider)

	if keyDir := cCtx.String(keyDirFlag.Name); keyDir != "" {
		kmsImpl, err = kmsImpl.WithKeyDir(keyDir)
		if err != nil {
			logger.Error("Failed to configure key directory", "err", err)
			return err
		}
		logger.Info("Sealed key persistence enabled", "keyDir", keyDir)
	}

	handler := keyhandler.NewHandler(kmsImpl, attType, logger)

	if storageURIs := cCtx.StringSlice(flags.StorageFlag.Name); len(storageURIs) > 0 {
		locations := make([]interfaces.StorageBackendLocation, len(storageURIs))
		for i, uri := range storageURIs {
			locations[i] = interfaces.StorageBackendLocation(uri)
		}

		factory := storage.NewStorageBackendFactory(logger)
		multiStorage, err := factory.CreateMultiBackend(locations)
		if err != nil {
			logger.Error("Failed to create storage backends", "err", err)
			return err
		}
		handler = handler.WithStorage(multiStorage)
		logger.Info("Key publication enabled", "storage", multiStorage.LocationURI())
	}

	var metricsSrv *metrics.MetricsServer
	if metricsAddr := cCtx.String(flags.MetricsAddrFlag.Name); metricsAddr != "" {
		metricsSrv, err = metrics.New(common.PackageName, metricsAddr)
		if err != nil {
			logger.Error("Failed to create metrics server", "err", err)
			return err
		}
		handler = handler.WithMetrics(metricsSrv)
	}

	listenAddr := cCtx.String(listenAddrFlag.Name)
	srv, err := httpserver.New(flags.ConfigureServer(cCtx, logger, listenAddr), metricsSrv, handler)
	if err != nil {
		logger.Error("Failed to create server", "err", err)
		return err
	}

	srv.RunInBackground()

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

	logger.Info("Server is running, press Ctrl+C to stop")
	<-exit
	logger.Info("Shutdown signal received")

	srv.Shutdown()
	logger.Info("Server shutdown complete")

	return nil
}

// resolveMasterSeed reads the master seed from the --master-seed hex flag or
// reconstructs it from Shamir share files.
func resolveMasterSeed(cCtx *cli.Context) ([]byte, error) {
	if seedHex := cCtx.String(masterSeedFlag.Name); seedHex != "" {
		seed, err := hex.DecodeString(strings.TrimSpace(seedHex))
		if err != nil {
			return nil, fmt.Errorf("invalid master seed hex: %w", err)
		}
		return seed, nil
	}

	sharePaths := cCtx.StringSlice(seedShareFlag.Name)
	if len(sharePaths) == 0 {
		return nil, fmt.Errorf("either --master-seed or --seed-share is required")
	}

	shares := make([][]byte, 0, len(sharePaths))
	for _, path := range sharePaths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("could not read share file %s: %w", path, err)
		}
		share, err := hex.DecodeString(strings.TrimSpace(string(raw)))
		if err != nil {
			return nil, fmt.Errorf("invalid share hex in %s: %w", path, err)
		}
		shares = append(shares, share)
	}

	return kms.CombineSeed(shares)
}

func attestationProvider(typeStr string) (attestation.Type, attestation.Provider, error) {
	attType, err := attestation.TypeFromString(typeStr)
	if err != nil {
		return attestation.Type{}, nil, err
	}

	switch attType.StringID {
	case attestation.DCAPAttestation.StringID:
		return attType, attestation.DCAPProvider{}, nil
	case attestation.DummyAttestation.StringID:
		return attType, attestation.DummyProvider{}, nil
	default:
		return attestation.Type{}, nil, fmt.Errorf("no attestation provider for type %s", typeStr)
	}
}

func runGenerateSeed(cCtx *cli.Context) error {
	logger := common.SetupLogger(&common.LoggingOpts{Service: "keyserver", Version: common.Version})

	masterSeed := make([]byte, 32)
	if _, err := rand.Read(masterSeed); err != nil {
		return fmt.Errorf("could not generate master seed: %w", err)
	}

	shares, err := kms.SplitSeed(masterSeed, cCtx.Int(sharesFlag.Name), cCtx.Int(thresholdFlag.Name))
	if err != nil {
		return err
	}

	outDir := cCtx.String(outDirFlag.Name)
	if err := os.MkdirAll(outDir, 0700); err != nil {
		return fmt.Errorf("could not create output directory: %w", err)
	}

	for i, share := range shares {
		path := filepath.Join(outDir, fmt.Sprintf("seed-share-%d.hex", i+1))
		if err := os.WriteFile(path, []byte(hex.EncodeToString(share)), 0600); err != nil {
			return fmt.Errorf("could not write share file %s: %w", path, err)
		}
		logger.Info("Wrote share file", slog.String("path", path))
	}

	logger.Info("Master seed split complete",
		slog.Int("shares", len(shares)),
		slog.Int("threshold", cCtx.Int(thresholdFlag.Name)))
	return nil
}
