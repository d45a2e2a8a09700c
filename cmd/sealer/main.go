package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/tcforge/workload-encryption/api/keyhandler"
	"github.com/tcforge/workload-encryption/cmd/flags"
	"github.com/tcforge/workload-encryption/interfaces"
	"github.com/tcforge/workload-encryption/storage"
)

var keyServerFlag = &cli.StringFlag{
	Name:  "key-server-addr",
	Value: "http://127.0.0.1:8080",
	Usage: "key service address to request worker keys from",
}

var secretFileFlag = &cli.StringFlag{
	Name:  "secret-file",
	Usage: "path to the plaintext secret; reads stdin when unset",
}

var outFlag = &cli.StringFlag{
	Name:  "out",
	Usage: "path to write the sealed secret to; writes stdout when unset",
}

var uploadFlag = &cli.BoolFlag{
	Name:  "upload",
	Usage: "upload the sealed secret to the key service storage instead of writing it locally",
}

func main() {
	app := &cli.App{
		Name:           "sealer",
		Usage:          "Seal secrets to attested workload encryption keys",
		DefaultCommand: "seal",
		Flags: []cli.Flag{
			flags.FlagWorkerName,
			flags.FlagWorkerID,
		},
		Commands: []*cli.Command{
			{
				Name:  "worker-key",
				Usage: "Fetch and verify a worker's attested public key",
				Flags: []cli.Flag{
					keyServerFlag,
				},
				Action: runWorkerKey,
			},
			{
				Name:  "seal",
				Usage: "Encrypt a secret to a worker's public key",
				Flags: []cli.Flag{
					keyServerFlag,
					secretFileFlag,
					outFlag,
					uploadFlag,
				},
				Action: runSeal,
			},
			{
				Name:  "fetch",
				Usage: "Fetch a sealed secret from a storage backend by content ID",
				Flags: []cli.Flag{
					flags.StorageFlag,
					outFlag,
				},
				ArgsUsage: "<content-id>",
				Action:    runFetch,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// resolveWorkerID builds the worker identity from --worker-id or --worker-name.
func resolveWorkerID(cCtx *cli.Context) (interfaces.WorkerID, error) {
	if idHex := cCtx.String(flags.FlagWorkerID.Name); idHex != "" {
		return interfaces.NewWorkerIDFromHex(idHex)
	}
	if name := cCtx.String(flags.FlagWorkerName.Name); name != "" {
		return interfaces.NewWorkerIDFromName(name), nil
	}
	return interfaces.WorkerID{}, fmt.Errorf("either --worker-id or --worker-name is required")
}

func runWorkerKey(cCtx *cli.Context) error {
	workerID, err := resolveWorkerID(cCtx)
	if err != nil {
		return err
	}

	keyResp, err := keyhandler.WorkerKey(cCtx.String(keyServerFlag.Name), workerID)
	if err != nil {
		return err
	}

	if err := keyhandler.VerifyWorkerKey(keyResp, workerID); err != nil {
		return fmt.Errorf("attestation verification failed: %w", err)
	}

	encoded, err := json.Marshal(keyResp)
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}

func runSeal(cCtx *cli.Context) error {
	workerID, err := resolveWorkerID(cCtx)
	if err != nil {
		return err
	}

	plaintext, err := readSecret(cCtx)
	if err != nil {
		return err
	}

	serverAddr := cCtx.String(keyServerFlag.Name)
	ciphertext, err := keyhandler.SealForWorker(serverAddr, workerID, plaintext)
	if err != nil {
		return err
	}

	if cCtx.Bool(uploadFlag.Name) {
		storeResp, err := keyhandler.StoreSealedSecret(serverAddr, ciphertext)
		if err != nil {
			return err
		}
		fmt.Println(storeResp.ContentID)
		return nil
	}

	return writeOutput(cCtx, ciphertext)
}

func runFetch(cCtx *cli.Context) error {
	contentID, err := interfaces.NewContentIDFromHex(cCtx.Args().First())
	if err != nil {
		return err
	}

	storageURIs := cCtx.StringSlice(flags.StorageFlag.Name)
	if len(storageURIs) == 0 {
		return fmt.Errorf("at least one --storage URI is required")
	}

	locations := make([]interfaces.StorageBackendLocation, len(storageURIs))
	for i, uri := range storageURIs {
		locations[i] = interfaces.StorageBackendLocation(uri)
	}

	logger := flags.SetupLogger(cCtx)
	factory := storage.NewStorageBackendFactory(logger)
	multiStorage, err := factory.CreateMultiBackend(locations)
	if err != nil {
		return err
	}

	ciphertext, err := multiStorage.Fetch(context.Background(), contentID, interfaces.SealedSecretType)
	if err != nil {
		return err
	}

	return writeOutput(cCtx, ciphertext)
}

func readSecret(cCtx *cli.Context) ([]byte, error) {
	if path := cCtx.String(secretFileFlag.Name); path != "" {
		return os.ReadFile(path)
	}

	plaintext, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("could not read secret from stdin: %w", err)
	}
	return plaintext, nil
}

func writeOutput(cCtx *cli.Context, data []byte) error {
	if path := cCtx.String(outFlag.Name); path != "" {
		return os.WriteFile(path, data, 0600)
	}

	_, err := os.Stdout.Write(data)
	return err
}
