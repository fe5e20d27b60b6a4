package decorator

import (
	"context"
	"errors"

	"github.com/architeacher/gateways/pkg/logger"
	"github.com/rs/zerolog"
)

type (
	commandLoggingDecorator[C Command, R any] struct {
		base   CommandHandler[C, R]
		logger logger.Logger
	}

	queryLoggingDecorator[Q Query, R Result] struct {
		base   QueryHandler[Q, R]
		logger logger.Logger
	}

	// Expected marks errors that are part of normal operation, such as
	// validation or not-found outcomes, so they are logged below error level.
	Expected interface {
		Expected() bool
	}
)

func (d commandLoggingDecorator[C, R]) Handle(ctx context.Context, cmd C) (result R, err error) {
	log := d.logger.WithContext(ctx).With().
		Str("command", generateActionName(cmd)).
		Interface("command_body", cmd).
		Logger()

	log.Debug().Msg("executing command")

	defer func() {
		logOutcome(log, err, "command")
	}()

	return d.base.Handle(ctx, cmd)
}

func (d queryLoggingDecorator[Q, R]) Execute(ctx context.Context, query Q) (result R, err error) {
	log := d.logger.WithContext(ctx).With().
		Str("query", generateActionName(query)).
		Interface("query_body", query).
		Logger()

	log.Debug().Msg("executing query")

	defer func() {
		logOutcome(log, err, "query")
	}()

	return d.base.Execute(ctx, query)
}

func logOutcome(log zerolog.Logger, err error, kind string) {
	if err == nil {
		log.Debug().Msgf("%s executed successfully", kind)

		return
	}

	var expected Expected
	if errors.As(err, &expected) && expected.Expected() {
		log.Warn().Err(err).Msgf("%s rejected", kind)

		return
	}

	log.Error().Err(err).Msgf("failed to execute %s", kind)
}
