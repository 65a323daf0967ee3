package healthcheck

import (
	"context"
	"fmt"
	"time"

	"smart_cycle_market/pkg/logger"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Dial connects to addr and waits until the connection is READY or timeout passes
func Dial(addr string, timeout time.Duration) (*grpc.ClientConn, error) {
	client, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc client %s: %w", addr, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client.Connect()
	for {
		state := client.GetState()
		if state == connectivity.Ready {
			logger.Log.Debug("grpc connection ready", zap.String("addr", addr))
			return client, nil
		}
		if !client.WaitForStateChange(ctx, state) {
			client.Close()
			return nil, fmt.Errorf("connection %s did not become READY within %s", addr, timeout)
		}
	}
}

// CheckRemote asks the health server at addr for the status of service, nil only when SERVING
func CheckRemote(ctx context.Context, addr, service string, timeout time.Duration) error {
	conn, err := Dial(addr, timeout)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return fmt.Errorf("health check %s: %w", service, err)
	}
	if resp.Status != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("%s is %s", service, resp.Status)
	}
	return nil
}
