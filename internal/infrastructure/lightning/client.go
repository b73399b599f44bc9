package lightning

import (
	"context"
	"encoding/hex"
	"fmt"
	"net"

	"github.com/LavaJover/shvark-p2p-service/internal/config"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

// macaroonCredential attaches the hex encoded admin macaroon to every call.
type macaroonCredential struct {
	macaroon string
	secure   bool
}

func (m macaroonCredential) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	return map[string]string{"macaroon": m.macaroon}, nil
}

func (m macaroonCredential) RequireTransportSecurity() bool {
	return m.secure
}

// Dial opens the gRPC connection to the LND node described by cfg.
func Dial(cfg config.LNDService) (*grpc.ClientConn, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("lnd host is not configured")
	}
	if cfg.MacaroonHex != "" {
		if _, err := hex.DecodeString(cfg.MacaroonHex); err != nil {
			return nil, fmt.Errorf("lnd macaroon is not hex: %w", err)
		}
	}

	opts := make([]grpc.DialOption, 0, 2)
	secure := cfg.TLSCertPath != ""
	if secure {
		creds, err := credentials.NewClientTLSFromFile(cfg.TLSCertPath, "")
		if err != nil {
			return nil, fmt.Errorf("loading lnd tls cert: %w", err)
		}
		opts = append(opts, grpc.WithTransportCredentials(creds))
	} else {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}
	if cfg.MacaroonHex != "" {
		opts = append(opts, grpc.WithPerRPCCredentials(macaroonCredential{macaroon: cfg.MacaroonHex, secure: secure}))
	}

	conn, err := grpc.NewClient(net.JoinHostPort(cfg.Host, cfg.Port), opts...)
	if err != nil {
		return nil, fmt.Errorf("dialing lnd: %w", err)
	}
	return conn, nil
}
