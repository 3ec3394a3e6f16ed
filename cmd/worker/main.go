package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	kafkaGo "github.com/segmentio/kafka-go"

	"bistro/config"
	"bistro/infras/kafka"
	resDto "bistro/internal/domains/reservation/model/dto"
	"bistro/shared/logger"
)

// The worker tails the reservation lifecycle topic and writes each event to
// the log, giving operators an audit trail of bookings, seatings, finishes
// and cancellations.
func main() {
	cfg := config.Get()

	logger.InitLogger()

	logger.SetLogLevel(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := kafka.New(cfg)

	log.Info().
		Str("topic", cfg.Kafka.Topic.ReservationEvents).
		Str("consumerGroup", cfg.Kafka.ConsumerGroup).
		Msg("Reservation event worker started")

	client.Consume(ctx, cfg.Kafka.ConsumerGroup, cfg.Kafka.Topic.ReservationEvents, func(msg kafkaGo.Message) {
		decoded, err := kafka.DecodeKafkaMessage[resDto.ReservationEvent](msg)
		if err != nil {
			log.Error().Err(err).Msg("failed to decode reservation event")

			return
		}

		event, ok := decoded.Value.(resDto.ReservationEvent)
		if !ok {
			log.Error().Str("key", decoded.Key).Msg("unexpected reservation event payload")

			return
		}

		log.Info().
			Str("event", event.Type).
			Str("reservationID", event.Reservation.ReservationID).
			Str("status", event.Reservation.Status).
			Time("at", event.At).
			Msg("reservation lifecycle event")
	})
}
