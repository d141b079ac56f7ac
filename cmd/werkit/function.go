package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/metabolize/werkit/pkg/config"
	"github.com/metabolize/werkit/pkg/deploy"
	"github.com/metabolize/werkit/pkg/retry"
	"github.com/metabolize/werkit/pkg/storage"
)

// deployerFactory is swapped out in tests.
var deployerFactory = newDeployer

func newDeployer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*deploy.Deployer, error) {
	client, err := storage.NewMinioClient(storage.Config{
		Endpoint:  cfg.Storage.Endpoint,
		Region:    cfg.Storage.Region,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		UseSSL:    cfg.Storage.UseSSL,
	})
	if err != nil {
		return nil, err
	}
	api, err := deploy.NewLambdaAPI(ctx, cfg.Deploy.Region)
	if err != nil {
		return nil, err
	}

	stager := storage.NewStager(client)
	stager.SetLogger(logger)
	d := deploy.NewDeployer(api, stager, deploy.Options{
		Policy:  retry.Policy{Interval: cfg.Deploy.Interval(), MaxAttempts: cfg.Deploy.PollMaxAttempts},
		Runtime: cfg.Deploy.Runtime,
	})
	d.SetLogger(logger)
	return d, nil
}

type functionFlags struct {
	region string
	bucket string
}

func (f *functionFlags) register(cmd *cobra.Command, withBucket bool) {
	cmd.Flags().StringVar(&f.region, "region", "", "AWS region (default: config or AWS_REGION)")
	if withBucket {
		cmd.Flags().StringVar(&f.bucket, "bucket", "", "bucket for staging the code zip (default: WERKIT_S3_BUCKET)")
	}
}

// setup applies flag overrides to the loaded configuration and builds a
// Deployer.
func (f *functionFlags) setup(cmd *cobra.Command, opts *rootOptions) (*deploy.Deployer, *config.Config, error) {
	cfg := *opts.cfg
	if f.region != "" {
		cfg.Deploy.Region = f.region
	}
	if f.bucket != "" {
		cfg.Storage.Bucket = f.bucket
	}

	d, err := deployerFactory(cmd.Context(), &cfg, opts.logger())
	if err != nil {
		return nil, nil, err
	}
	return d, &cfg, nil
}

func functionCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "function", Short: "Deploy serverless functions"}
	cmd.AddCommand(functionCreateCmd(opts))
	cmd.AddCommand(functionUpdateCmd(opts))
	cmd.AddCommand(functionDeleteCmd(opts))
	return cmd
}

func functionCreateCmd(opts *rootOptions) *cobra.Command {
	var flags functionFlags
	var in deploy.CreateInput

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a function from a local zip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, cfg, err := flags.setup(cmd, opts)
			if err != nil {
				return err
			}
			in.Name = args[0]
			in.Bucket = cfg.Storage.Bucket
			if err := d.CreateFunction(cmd.Context(), in); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", in.Name)
			return err
		},
	}
	flags.register(cmd, true)
	cmd.Flags().StringVar(&in.ZipPath, "zip", "", "path to the function zip")
	cmd.Flags().StringVar(&in.Handler, "handler", "", "function entry point")
	cmd.Flags().StringVar(&in.Role, "role", "", "execution role ARN")
	cmd.Flags().StringVar(&in.Runtime, "runtime", "", "runtime (default: config or "+deploy.DefaultRuntime+")")
	cmd.Flags().Int32Var(&in.TimeoutSeconds, "timeout", 0, "timeout in seconds")
	cmd.Flags().Int32Var(&in.MemoryMB, "memory", 0, "memory size in MB")
	cmd.Flags().StringToStringVar(&in.Env, "env", nil, "environment variable KEY=VALUE (repeatable)")
	_ = cmd.MarkFlagRequired("zip")
	_ = cmd.MarkFlagRequired("handler")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

func functionUpdateCmd(opts *rootOptions) *cobra.Command {
	var flags functionFlags
	var in deploy.UpdateInput

	cmd := &cobra.Command{
		Use:   "update NAME",
		Short: "Replace the code of a function from a local zip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, cfg, err := flags.setup(cmd, opts)
			if err != nil {
				return err
			}
			in.Name = args[0]
			in.Bucket = cfg.Storage.Bucket
			if err := d.UpdateFunctionCode(cmd.Context(), in); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "updated %s\n", in.Name)
			return err
		},
	}
	flags.register(cmd, true)
	cmd.Flags().StringVar(&in.ZipPath, "zip", "", "path to the function zip")
	_ = cmd.MarkFlagRequired("zip")
	return cmd
}

func functionDeleteCmd(opts *rootOptions) *cobra.Command {
	var flags functionFlags

	cmd := &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a function",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, _, err := flags.setup(cmd, opts)
			if err != nil {
				return err
			}
			if err := d.DeleteFunction(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return err
		},
	}
	flags.register(cmd, false)
	return cmd
}
