// Package compile implements the compile subcommand: it turns command line
// arguments and configuration into one stylesheet job per source file and
// runs each through the worker protocol.
package compile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/gstvribs/ng-packagr/common"
	"github.com/gstvribs/ng-packagr/dialect"
	"github.com/gstvribs/ng-packagr/pipeline"
	"github.com/gstvribs/ng-packagr/state"
	"github.com/gstvribs/ng-packagr/worker"
)

// Run is the compile subcommand action.
func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("compile")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	if src, err = filepath.Abs(src); err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	env.Overwrite = cmd.Bool("overwrite")

	urlMode := env.Cfg.Compile.CSSURL
	if cmd.IsSet("url") {
		if urlMode, err = common.ParseCSSURLMode(cmd.String("url")); err != nil {
			return err
		}
	}

	targets := env.Cfg.Compile.Browserslist
	if cmd.IsSet("target") {
		targets = cmd.StringSlice("target")
	}

	includePaths := append([]string{}, env.Cfg.Compile.IncludePaths...)
	includePaths = append(includePaths, cmd.StringSlice("include")...)

	read, err := dialect.NewFileReader(env.Cfg.Compile.SourceCharset)
	if err != nil {
		return fmt.Errorf("unable to prepare source reader: %w", err)
	}

	engines, closeEngines := dialect.ResolveEngines(dialect.EnginePaths{
		DartSass: env.Cfg.Compile.Engines.DartSassPath,
		Sass:     env.Cfg.Compile.Engines.SassPath,
		Lessc:    env.Cfg.Compile.Engines.LesscPath,
		Stylus:   env.Cfg.Compile.Engines.StylusPath,
	}, log)
	defer func() {
		if er := closeEngines(); er != nil {
			err = multierr.Append(err, fmt.Errorf("unable to shut down engines: %w", er))
		}
	}()

	processor := worker.NewProcessor(
		dialect.NewRenderer(engines, read, log),
		pipeline.New(log),
		log)

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst), zap.Stringer("url_mode", urlMode))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, processor, src, dst, includePaths, targets, urlMode, log)
}

// process runs one stylesheet through the worker protocol and writes the
// result, independently of CLI framework.
func process(ctx context.Context, processor *worker.Processor, src, dst string, includePaths, targets []string, urlMode common.CSSURLMode, log *zap.Logger) error {
	env := state.EnvFromContext(ctx)

	fi, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("input source was not found (%s): %w", src, err)
	}
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("input source is not a file (%s)", src)
	}

	job := worker.Job{
		ID:                uuid.New(),
		FilePath:          src,
		BasePath:          filepath.Dir(src),
		StyleIncludePaths: includePaths,
		BrowserslistData:  targets,
		CSSURL:            urlMode,
	}

	reply, err := processor.Process(ctx, job)
	if err != nil {
		return fmt.Errorf("unable to compile (%s): %w", src, err)
	}
	for _, w := range reply.Warnings {
		log.Warn("Compilation warning", zap.String("file", src), zap.String("warning", w))
	}

	outputName, err := buildOutputPath(src, dst, env)
	if err != nil {
		return err
	}

	if _, err := os.Stat(outputName); err == nil {
		if !env.Overwrite {
			return fmt.Errorf("output file already exists: %s", outputName)
		}
		log.Warn("Overwriting existing file", zap.String("file", outputName))
	} else if !os.IsNotExist(err) {
		return err
	} else if err := os.MkdirAll(filepath.Dir(outputName), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	if err := os.WriteFile(outputName, []byte(reply.CSS), 0644); err != nil {
		return fmt.Errorf("unable to write output: %w", err)
	}
	log.Info("Stylesheet compiled", zap.String("from", src), zap.String("to", outputName), zap.Int("bytes", len(reply.CSS)))

	// Store compile result for debugging
	if env.Rpt != nil {
		env.Rpt.StoreData(fmt.Sprintf("jobs/%s/%s", job.ID, filepath.Base(outputName)), []byte(reply.CSS))
		for i, w := range reply.Warnings {
			env.Rpt.StoreData(fmt.Sprintf("jobs/%s/warning-%d.txt", job.ID, i), []byte(w))
		}
	}
	return nil
}

// buildOutputPath determines output file name and path based on input and
// configuration.
func buildOutputPath(src, dst string, env *state.LocalEnv) (string, error) {
	name, err := expandOutputName(env.Cfg.Compile.OutputNameTemplate, buildValues(src))
	if err != nil {
		return "", fmt.Errorf("unable to expand output name template: %w", err)
	}
	return filepath.Join(dst, name), nil
}
