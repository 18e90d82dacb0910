// Package redis implementa el lease distribuido del job de reconciliación:
// SetNX con TTL para exclusión mutua entre instancias, liberación solo si el
// dueño sigue siendo quien lo tomó.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Lease candado distribuido de vida acotada sobre Redis.
type Lease struct {
	client *redis.Client
	clave  string
	dueno  string
	ttl    time.Duration
}

// NewLease construye el lease y verifica la conexión.
func NewLease(redisURL, clave string, ttl time.Duration) (*Lease, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse Redis URL: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("conectar a Redis: %w", err)
	}

	return &Lease{
		client: client,
		clave:  clave,
		dueno:  uuid.New().String(),
		ttl:    ttl,
	}, nil
}

// Adquirir intenta tomar el lease. false sin error significa que otra
// instancia lo tiene: el barrido de este ciclo se salta, no es un fallo.
func (l *Lease) Adquirir(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.clave, l.dueno, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("adquirir lease %s: %w", l.clave, err)
	}
	return ok, nil
}

// liberarScript borra la clave solo si el valor sigue siendo el dueño actual,
// para no soltar un lease que ya expiró y fue tomado por otra instancia.
var liberarScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end`)

// Liberar suelta el lease si esta instancia aún es la dueña.
func (l *Lease) Liberar(ctx context.Context) error {
	if err := liberarScript.Run(ctx, l.client, []string{l.clave}, l.dueno).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("liberar lease %s: %w", l.clave, err)
	}
	return nil
}

// Close cierra la conexión con Redis.
func (l *Lease) Close() error {
	return l.client.Close()
}
