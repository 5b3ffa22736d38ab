// Package localstack starts a LocalStack container and builds AWS clients
// against it.
package localstack

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	tclocalstack "github.com/testcontainers/testcontainers-go/modules/localstack"
)

// Port is the LocalStack edge port inside the container.
const Port nat.Port = "4566/tcp"

// Well-known service names.
const (
	ServiceDynamoDB = "dynamodb"
	ServiceSQS      = "sqs"
	ServiceLambda   = "lambda"
)

type runningContainer interface {
	Host(ctx context.Context) (string, error)
	MappedPort(ctx context.Context, port nat.Port) (nat.Port, error)
	Terminate(ctx context.Context, opts ...testcontainers.TerminateOption) error
}

// Environment is a running LocalStack container.
type Environment struct {
	container runningContainer
	services  []string
	host      string
	port      string
}

// Start removes any container left over under cfg.ContainerName and starts a
// fresh LocalStack container running services.
func Start(ctx context.Context, cfg Config, services ...string) (*Environment, error) {
	if cfg.StartupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.StartupTimeout)
		defer cancel()
	}

	if err := removeStale(ctx, cfg.ContainerName); err != nil {
		return nil, fmt.Errorf("remove stale container %s: %w", cfg.ContainerName, err)
	}

	ctr, err := tclocalstack.Run(ctx, cfg.Image(),
		testcontainers.WithEnv(map[string]string{"SERVICES": strings.Join(services, ",")}),
		withContainer(cfg.ContainerName, cfg.HostPort),
	)
	if err != nil {
		if ctr != nil {
			_ = ctr.Terminate(context.Background())
		}
		return nil, fmt.Errorf("start localstack: %w", err)
	}

	env, err := newEnvironment(ctx, ctr, services)
	if err != nil {
		_ = ctr.Terminate(context.Background())
		return nil, err
	}
	return env, nil
}

func newEnvironment(ctx context.Context, ctr runningContainer, services []string) (*Environment, error) {
	host, err := ctr.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve localstack host: %w", err)
	}
	port, err := ctr.MappedPort(ctx, Port)
	if err != nil {
		return nil, fmt.Errorf("resolve localstack port: %w", err)
	}
	return &Environment{
		container: ctr,
		services:  services,
		host:      host,
		port:      port.Port(),
	}, nil
}

// Endpoint returns the base URL AWS clients talk to.
func (e *Environment) Endpoint() string {
	return "http://" + e.host + ":" + e.port
}

// Host returns the host the container is reachable at.
func (e *Environment) Host() string { return e.host }

// Port returns the host port mapped to the edge port.
func (e *Environment) Port() string { return e.port }

// Services returns the services the container runs.
func (e *Environment) Services() []string { return e.services }

// Terminate stops and removes the container.
func (e *Environment) Terminate(ctx context.Context) error {
	if err := e.container.Terminate(ctx); err != nil {
		return fmt.Errorf("terminate localstack: %w", err)
	}
	return nil
}

// withContainer names the container and binds the edge port to hostPort on
// the host. A zero hostPort leaves the choice to docker.
func withContainer(name string, hostPort int) testcontainers.CustomizeRequestOption {
	return func(req *testcontainers.GenericContainerRequest) error {
		req.Name = name
		if hostPort == 0 {
			return nil
		}

		previous := req.HostConfigModifier
		req.HostConfigModifier = func(hc *container.HostConfig) {
			if previous != nil {
				previous(hc)
			}
			if hc.PortBindings == nil {
				hc.PortBindings = nat.PortMap{}
			}
			hc.PortBindings[Port] = []nat.PortBinding{{HostIP: "0.0.0.0", HostPort: strconv.Itoa(hostPort)}}
		}
		return nil
	}
}

func removeStale(ctx context.Context, name string) error {
	if name == "" {
		return nil
	}
	cli, err := testcontainers.NewDockerClientWithOpts(ctx)
	if err != nil {
		return err
	}
	defer cli.Close()

	err = cli.ContainerRemove(ctx, name, container.RemoveOptions{Force: true})
	if err != nil && !client.IsErrNotFound(err) {
		return err
	}
	return nil
}
