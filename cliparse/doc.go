// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 8090)
  - DatabaseURL: Connection string (required)
  - DatabaseType: "postgres" (default) or "sqlite"
  - KafkaBrokers: Optional broker list for lifecycle notifications
  - KafkaTopic: Event topic (default: poll-events when brokers are set)

# CLI Flags

	-p             Server port
	-d             Database URL
	-t             Database type
	-kafka-brokers Kafka brokers, comma separated
	-kafka-topic   Kafka topic

# Environment Variables

Flags fall back to environment variables:

	PORT          → -p
	DATABASE_URL  → -d
	DATABASE_TYPE → -t
	KAFKA_BROKERS → -kafka-brokers
	KAFKA_TOPIC   → -kafka-topic

CLI flags take precedence over environment variables.
*/
package cliparse
