// Package deploy creates, updates and deletes serverless functions whose code
// is staged through a temporary object.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/aws/smithy-go"

	"github.com/metabolize/werkit/pkg/retry"
	"github.com/metabolize/werkit/pkg/storage"
)

// DefaultRuntime is used when neither the input nor Options name one.
const DefaultRuntime = "nodejs14.x"

// ErrFunctionFailed is returned when the function settles in a failed state.
var ErrFunctionFailed = errors.New("function entered failed state")

// Options tune a Deployer. Zero values select the defaults.
type Options struct {
	Policy  retry.Policy
	Runtime string
}

// CreateInput describes a new function. TimeoutSeconds and MemoryMB are
// omitted from the request when zero.
type CreateInput struct {
	Name           string
	Handler        string
	Role           string
	ZipPath        string
	Bucket         string
	Runtime        string
	TimeoutSeconds int32
	MemoryMB       int32
	Env            map[string]string
}

// UpdateInput replaces the code of an existing function.
type UpdateInput struct {
	Name    string
	ZipPath string
	Bucket  string
}

type Deployer struct {
	api     FunctionAPI
	stager  *storage.Stager
	policy  retry.Policy
	runtime string
	logger  *slog.Logger
}

func NewDeployer(api FunctionAPI, stager *storage.Stager, opts Options) *Deployer {
	policy := opts.Policy
	if policy.MaxAttempts <= 0 {
		policy = retry.DefaultPolicy
	}
	runtime := strings.TrimSpace(opts.Runtime)
	if runtime == "" {
		runtime = DefaultRuntime
	}
	return &Deployer{api: api, stager: stager, policy: policy, runtime: runtime}
}

func (d *Deployer) SetLogger(logger *slog.Logger) {
	d.logger = logger
}

// CreateFunction uploads the zip, creates the function from it and waits
// until the function is active. The staged zip is always removed.
func (d *Deployer) CreateFunction(ctx context.Context, in CreateInput) error {
	if err := requireFields(map[string]string{
		"name": in.Name, "handler": in.Handler, "role": in.Role, "zip path": in.ZipPath, "bucket": in.Bucket,
	}); err != nil {
		return err
	}

	runtime := in.Runtime
	if runtime == "" {
		runtime = d.runtime
	}

	return d.stager.WithTempFile(ctx, in.ZipPath, in.Bucket, func(obj *storage.TempObject) error {
		req := &lambda.CreateFunctionInput{
			FunctionName: aws.String(in.Name),
			Handler:      aws.String(in.Handler),
			Role:         aws.String(in.Role),
			Runtime:      types.Runtime(runtime),
			Code: &types.FunctionCode{
				S3Bucket: aws.String(obj.Bucket),
				S3Key:    aws.String(obj.Key),
			},
			Environment: &types.Environment{Variables: envVars(in.Env)},
		}
		if in.TimeoutSeconds > 0 {
			req.Timeout = aws.Int32(in.TimeoutSeconds)
		}
		if in.MemoryMB > 0 {
			req.MemorySize = aws.Int32(in.MemoryMB)
		}

		d.logInfo("function_creating", "function", in.Name, "runtime", runtime, "code", obj.URL())
		if _, err := d.api.CreateFunction(ctx, req); err != nil {
			return fmt.Errorf("create function %s: %w", in.Name, err)
		}
		if err := d.waitUpdated(ctx, in.Name); err != nil {
			return err
		}
		d.logInfo("function_created", "function", in.Name)
		return nil
	})
}

// UpdateFunctionCode uploads the zip, points the function at it and waits
// for the update to finish.
func (d *Deployer) UpdateFunctionCode(ctx context.Context, in UpdateInput) error {
	if err := requireFields(map[string]string{
		"name": in.Name, "zip path": in.ZipPath, "bucket": in.Bucket,
	}); err != nil {
		return err
	}

	return d.stager.WithTempFile(ctx, in.ZipPath, in.Bucket, func(obj *storage.TempObject) error {
		d.logInfo("function_updating", "function", in.Name, "code", obj.URL())
		_, err := d.api.UpdateFunctionCode(ctx, &lambda.UpdateFunctionCodeInput{
			FunctionName: aws.String(in.Name),
			S3Bucket:     aws.String(obj.Bucket),
			S3Key:        aws.String(obj.Key),
		})
		if err != nil {
			return fmt.Errorf("update function code %s: %w", in.Name, err)
		}
		if err := d.waitUpdated(ctx, in.Name); err != nil {
			return err
		}
		d.logInfo("function_updated", "function", in.Name)
		return nil
	})
}

// DeleteFunction deletes the function and waits until it can no longer be
// found.
func (d *Deployer) DeleteFunction(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("function name is required")
	}

	d.logInfo("function_deleting", "function", name)
	if _, err := d.api.DeleteFunction(ctx, &lambda.DeleteFunctionInput{FunctionName: aws.String(name)}); err != nil {
		return fmt.Errorf("delete function %s: %w", name, err)
	}

	err := retry.Poll(ctx, d.policy, func(ctx context.Context) (bool, error) {
		_, err := d.api.GetFunctionConfiguration(ctx, &lambda.GetFunctionConfigurationInput{FunctionName: aws.String(name)})
		if err == nil {
			return false, nil
		}
		if isNotFound(err) {
			return true, nil
		}
		return false, fmt.Errorf("get function configuration %s: %w", name, err)
	})
	if err != nil {
		return fmt.Errorf("wait for function %s deletion: %w", name, err)
	}
	d.logInfo("function_deleted", "function", name)
	return nil
}

// waitUpdated polls until the function is active and its last update
// succeeded.
func (d *Deployer) waitUpdated(ctx context.Context, name string) error {
	attempt := 0
	err := retry.Poll(ctx, d.policy, func(ctx context.Context) (bool, error) {
		attempt++
		out, err := d.api.GetFunctionConfiguration(ctx, &lambda.GetFunctionConfigurationInput{FunctionName: aws.String(name)})
		if err != nil {
			return false, fmt.Errorf("get function configuration %s: %w", name, err)
		}
		d.logDebug("function_state", "function", name, "attempt", attempt,
			"state", string(out.State), "last_update_status", string(out.LastUpdateStatus))

		switch {
		case out.State == types.StateFailed:
			return false, fmt.Errorf("%w: %s: %s", ErrFunctionFailed, name, aws.ToString(out.StateReason))
		case out.LastUpdateStatus == types.LastUpdateStatusFailed:
			return false, fmt.Errorf("%w: %s: %s", ErrFunctionFailed, name, aws.ToString(out.LastUpdateStatusReason))
		}
		active := out.State == "" || out.State == types.StateActive
		updated := out.LastUpdateStatus == "" || out.LastUpdateStatus == types.LastUpdateStatusSuccessful
		return active && updated, nil
	})
	if err != nil {
		return fmt.Errorf("wait for function %s: %w", name, err)
	}
	return nil
}

// isNotFound matches the typed exception and, for clients that do not
// deserialize it, the bare API error code.
func isNotFound(err error) bool {
	var notFound *types.ResourceNotFoundException
	if errors.As(err, &notFound) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "ResourceNotFoundException"
}

func requireFields(fields map[string]string) error {
	var missing []string
	for _, name := range []string{"name", "handler", "role", "zip path", "bucket"} {
		value, ok := fields[name]
		if ok && strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required %s", strings.Join(missing, ", "))
	}
	return nil
}

func envVars(env map[string]string) map[string]string {
	if env == nil {
		return map[string]string{}
	}
	return env
}

func (d *Deployer) logInfo(msg string, args ...any) {
	if d.logger == nil {
		return
	}
	d.logger.Info(msg, args...)
}

func (d *Deployer) logDebug(msg string, args ...any) {
	if d.logger == nil {
		return
	}
	d.logger.Debug(msg, args...)
}
