package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/zeusync/binprot/internal/core/observability/log"
	"github.com/zeusync/binprot/internal/injector"
	"github.com/zeusync/binprot/internal/schema"
	"github.com/zeusync/binprot/pkg/concurrent"
	"github.com/zeusync/binprot/pkg/encoding/binprot"
	"github.com/zeusync/binprot/pkg/encoding/binprot/frame"
)

// commonFlags are shared by every command.
type commonFlags struct {
	configPath string
	types      []string
}

func (c *commonFlags) add(fs *pflag.FlagSet, withTypes bool) {
	fs.StringVarP(&c.configPath, "config", "c", "", "YAML config file")
	if withTypes {
		fs.StringArrayVarP(&c.types, "type", "t", nil, "type descriptor of the next value, e.g. i64 or seq<string> (repeatable)")
	}
}

// runtime builds the wired components and applies a -t override to the schema.
func (c *commonFlags) runtime() (*injector.Runtime, error) {
	rt, err := injector.InitializeRuntime(injector.ConfigPath(c.configPath))
	if err != nil {
		return nil, err
	}
	if len(c.types) > 0 {
		tuple, err := schema.ParseTuple(c.types)
		if err != nil {
			return nil, err
		}
		rt.Schema = tuple
	}
	return rt, nil
}

func parseFlags(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	return nil
}

func runEncode(args []string, stdout io.Writer) error {
	var flags commonFlags
	var out string
	fs := pflag.NewFlagSet("encode", pflag.ContinueOnError)
	flags.add(fs, true)
	var compare bool
	fs.StringVarP(&out, "out", "o", "", "append the value as a framed record to this file instead of printing hex")
	fs.BoolVar(&compare, "compare", false, "also print the encoded size under msgpack and cbor")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	rt, err := flags.runtime()
	if err != nil {
		return err
	}
	record, err := rt.Schema.Parse(fs.Args())
	if err != nil {
		return err
	}

	if out == "" {
		data, err := binprot.Marshal(record, rt.Codec)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(stdout, hex.EncodeToString(data)); err != nil {
			return err
		}
		if compare {
			return writeSizes(stdout, record, comparisonCodecs(rt.Codec))
		}
		return nil
	}

	f, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}
	defer f.Close()
	if err := frame.NewWriter(f, rt.Limits).WriteValue(record); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	rt.Logger.Debug("Record appended", log.String("file", out), log.String("schema", rt.Schema.String()))
	return f.Close()
}

func runDecode(args []string, stdout io.Writer) error {
	var flags commonFlags
	fs := pflag.NewFlagSet("decode", pflag.ContinueOnError)
	flags.add(fs, true)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("decode takes exactly one hex argument, got %d", fs.NArg())
	}

	rt, err := flags.runtime()
	if err != nil {
		return err
	}
	data, err := hex.DecodeString(strings.TrimPrefix(strings.Join(strings.Fields(fs.Arg(0)), ""), "0x"))
	if err != nil {
		return fmt.Errorf("parse hex: %w", err)
	}

	record := rt.Schema.New()
	if err := binprot.Unmarshal(data, record, rt.Codec); err != nil {
		rt.Logger.Debug("Decode failed", log.Hex("input", data), log.Error(err))
		return err
	}
	for _, v := range record.Values {
		if _, err := fmt.Fprintln(stdout, v.String()); err != nil {
			return err
		}
	}
	return nil
}

// fileResult is the outcome of verifying one file.
type fileResult struct {
	path    string
	records int
	err     error
}

func runVerify(ctx context.Context, args []string, stdout io.Writer) error {
	var flags commonFlags
	fs := pflag.NewFlagSet("verify", pflag.ContinueOnError)
	flags.add(fs, true)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("verify needs at least one file")
	}

	rt, err := flags.runtime()
	if err != nil {
		return err
	}

	results, err := concurrent.Collect(ctx, fs.Args(), rt.Config.Verify.Concurrency,
		func(ctx context.Context, path string) fileResult {
			records, err := verifyFile(ctx, path, rt.Schema, rt.Limits)
			return fileResult{path: path, records: records, err: err}
		})
	if err != nil {
		return err
	}

	var failed []error
	for _, r := range results {
		if r.err != nil {
			rt.Logger.Error("Verification failed", log.String("file", r.path), log.Int("records", r.records), log.Error(r.err))
			fmt.Fprintf(stdout, "%s: FAIL after %d records: %v\n", r.path, r.records, r.err)
			failed = append(failed, fmt.Errorf("%s: %w", r.path, r.err))
			continue
		}
		fmt.Fprintf(stdout, "%s: ok, %d records\n", r.path, r.records)
	}
	return errors.Join(failed...)
}

// verifyFile decodes every record in path against tuple. Only a stream that
// ends exactly on a record boundary counts as complete.
func verifyFile(ctx context.Context, path string, tuple schema.Tuple, limits frame.Limits) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := frame.NewReader(f, limits)
	verified := 0
	for {
		if err := ctx.Err(); err != nil {
			return verified, err
		}
		payload, err := r.ReadRecord()
		if err == io.EOF {
			return verified, nil
		}
		if err != nil {
			return verified, err
		}
		if err := binprot.Unmarshal(payload, tuple.New(), limits.Codec); err != nil {
			return verified, fmt.Errorf("record %d: %w", verified, err)
		}
		verified++
	}
}

func runServe(ctx context.Context, args []string) error {
	var flags commonFlags
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	flags.add(fs, true)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if len(flags.types) > 0 {
		return errors.New("serve takes its schema from the config file")
	}

	rt, err := flags.runtime()
	if err != nil {
		return err
	}
	defer func() { _ = rt.Logger.Sync() }()

	rt.Logger.Info("Starting echo server",
		log.String("addr", rt.Config.Server.Addr),
		log.String("schema", rt.Schema.String()))
	return rt.Server.ListenAndServe(ctx)
}
