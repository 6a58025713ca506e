package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/guardiannet/gnlist-engine/pkg/codec"
	"github.com/guardiannet/gnlist-engine/pkg/config"
	"github.com/guardiannet/gnlist-engine/pkg/crypto"
	"github.com/guardiannet/gnlist-engine/pkg/db"
	"github.com/guardiannet/gnlist-engine/pkg/gnlist"
	"github.com/guardiannet/gnlist-engine/pkg/gnsync"
	"github.com/guardiannet/gnlist-engine/pkg/log"
)

const maxPayloadLineSize = 64 * 1024 * 1024

var (
	configFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to config in JSON or YAML",
	}
	dataPathFlag = &cli.StringFlag{
		Name:    "data-path",
		Aliases: []string{"d"},
		Usage:   "Directory of the diff database",
	}
	inputFlag = &cli.StringFlag{
		Name:    "input",
		Aliases: []string{"i"},
		Usage:   "File with one hex encoded diff per line. Reads stdin when omitted",
	}
)

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := &config.Config{}
	if configPath := c.String(configFlag.Name); configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.InsertDefault(); err != nil {
		return nil, err
	}
	cfg.Merge(&config.Config{
		DataPath:         c.String(dataPathFlag.Name),
		StrictContinuity: c.Bool("strict"),
	})
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openInput(c *cli.Context) (io.ReadCloser, error) {
	path := c.String(inputFlag.Name)
	if path == "" {
		return io.NopCloser(c.App.Reader), nil
	}
	return os.Open(path)
}

// readPayloads sends the decoded hex lines of reader to the returned channel. Empty lines are skipped.
func readPayloads(ctx context.Context, reader io.Reader, logger log.Logger) <-chan []byte {
	payloads := make(chan []byte)
	go func() {
		defer close(payloads)
		scanner := bufio.NewScanner(reader)
		scanner.Buffer(make([]byte, 0, 64*1024), maxPayloadLineSize)
		line := 0
		for scanner.Scan() {
			line++
			text := strings.TrimSpace(scanner.Text())
			if text == "" {
				continue
			}
			payload, err := codec.DecodeHex(text)
			if err != nil {
				logger.Errorf("Skipping line %d with %v", line, err)
				continue
			}
			select {
			case payloads <- payload:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			logger.Errorf("Fail reading input with %v", err)
		}
	}()
	return payloads
}

func writeJSON(w io.Writer, val interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(val)
}

// verifyBlockInclusion checks the coinbase transaction of the diff and its inclusion in the block
// with the merkle root given as display hex.
func verifyBlockInclusion(diff *gnlist.Diff, blockMerkleRoot string) error {
	root, err := crypto.HashFromString(blockMerkleRoot)
	if err != nil {
		return err
	}
	if err := diff.CoinbaseTx.Validate(); err != nil {
		return fmt.Errorf("%w: invalid coinbase transaction: %s", codec.ErrInvalidData, err)
	}
	return diff.VerifyCoinbaseInclusion(root)
}

func getDecodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "decode",
		Usage:     "Decode a hex encoded diff and print it as JSON",
		ArgsUsage: "<hex>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "block-merkle-root",
				Usage: "Merkle root of the block in display hex. The coinbase transaction must be proven against it",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("expected one hex encoded diff but received %d arguments", c.NArg())
			}
			diff, err := gnlist.DecodeDiffHex(strings.TrimSpace(c.Args().First()))
			if err != nil {
				return err
			}
			if blockMerkleRoot := c.String("block-merkle-root"); blockMerkleRoot != "" {
				if err := verifyBlockInclusion(diff, blockMerkleRoot); err != nil {
					return err
				}
			}
			return writeJSON(c.App.Writer, diff.Parts())
		},
	}
}

func getApplyCommand(logger log.Logger) *cli.Command {
	return &cli.Command{
		Name:  "apply",
		Usage: "Apply hex encoded diffs to the stored list",
		Flags: []cli.Flag{
			configFlag,
			dataPathFlag,
			inputFlag,
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "Reject diffs which do not continue from the block of the list",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			applyLogger, err := loggerFor(cfg, logger)
			if err != nil {
				return err
			}
			database, err := db.NewDB(cfg.DataPath)
			if err != nil {
				return err
			}
			defer database.Close()

			syncer := gnsync.NewSyncer(database, cfg, applyLogger.With("module", "syncer"))
			if err := syncer.Init(); err != nil {
				return err
			}
			input, err := openInput(c)
			if err != nil {
				return err
			}
			defer input.Close()

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := syncer.Run(ctx, readPayloads(ctx, input, applyLogger)); err != nil {
				return err
			}
			applyLogger.Infof("List at block %s has %d entries with root %s", syncer.BlockHash(), syncer.Size(), syncer.RegistryRoot())
			return nil
		},
	}
}

func getExportCommand(logger log.Logger) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Print the snapshot of the stored list, or a stored diff",
		Flags: []cli.Flag{
			configFlag,
			dataPathFlag,
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print as JSON instead of hex",
			},
			&cli.StringFlag{
				Name:  "block",
				Usage: "Print the applied diff which moved the list to this block hash instead of the snapshot",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			database, err := db.NewDB(cfg.DataPath)
			if err != nil {
				return err
			}
			defer database.Close()

			store := gnsync.NewStore(database)
			var exported *gnlist.Diff
			if block := c.String("block"); block != "" {
				blockHash, err := crypto.HashFromString(block)
				if err != nil {
					return err
				}
				if exported, err = store.DiffByBlockHash(blockHash); err != nil {
					return err
				}
				logger.Debugf("Exporting diff from %s to %s", exported.BaseBlockHash, exported.BlockHash)
			} else {
				if exported, err = store.Snapshot(); err != nil {
					return err
				}
				logger.Debugf("Exporting snapshot at block %s", exported.BlockHash)
			}
			if c.Bool("json") {
				return writeJSON(c.App.Writer, exported.Parts())
			}
			str, err := exported.Hex()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.App.Writer, str)
			return err
		},
	}
}

func getReplayCommand(logger log.Logger) *cli.Command {
	return &cli.Command{
		Name:  "replay",
		Usage: "Rebuild the list from the stored diffs and compare it with the stored snapshot",
		Flags: []cli.Flag{
			configFlag,
			dataPathFlag,
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			database, err := db.NewDB(cfg.DataPath)
			if err != nil {
				return err
			}
			defer database.Close()

			store := gnsync.NewStore(database)
			diffs, err := store.Diffs(-1)
			if err != nil {
				return err
			}
			list, err := replay(diffs)
			if err != nil {
				return err
			}
			snapshot, err := store.Snapshot()
			if err != nil {
				return err
			}
			if list.RegistryRoot() != snapshot.ClaimedRoot {
				return fmt.Errorf("%w: replayed root %s does not match snapshot root %s", gnlist.ErrVerification, list.RegistryRoot(), snapshot.ClaimedRoot)
			}
			logger.Infof("Replayed %d diffs to block %s with root %s", len(diffs), list.BlockHash(), list.RegistryRoot())
			return nil
		},
	}
}

func getResetCommand(logger log.Logger) *cli.Command {
	return &cli.Command{
		Name:  "reset",
		Usage: "Remove every stored diff and the snapshot",
		Flags: []cli.Flag{
			configFlag,
			dataPathFlag,
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			database, err := db.NewDB(cfg.DataPath)
			if err != nil {
				return err
			}
			defer database.Close()

			if err := gnsync.NewStore(database).Clear(); err != nil {
				return err
			}
			logger.Infof("Removed stored diffs in %s", cfg.DataPath)
			return nil
		},
	}
}

func replay(diffs []*gnlist.Diff) (*gnlist.List, error) {
	list := gnlist.NewList()
	for i, diff := range diffs {
		if err := list.ApplyDiff(diff); err != nil {
			return nil, fmt.Errorf("replaying diff %d for block %s: %w", i, diff.BlockHash, err)
		}
	}
	return list, nil
}

func loggerFor(cfg *config.Config, fallback log.Logger) (log.Logger, error) {
	if strings.EqualFold(cfg.LogLevel, "info") {
		return fallback, nil
	}
	return log.NewLogger(cfg.LogLevel)
}
