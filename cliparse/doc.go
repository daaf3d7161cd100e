// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

Load does the same from the environment and a config file only, for tools
that bring their own flags.

# Sources

Each setting is taken from the first source that has it:

 1. CLI flag
 2. Environment variable (a .env file in the working directory is loaded first)
 3. Config file (-c or CONFIG_FILE; json, yaml or toml)
 4. Default

# CLI Flags and Environment Variables

	-p           PORT             Server port (3318)
	-d           DATABASE_URL     Database URL or sqlite file (lunch.db)
	-t           DATABASE_TYPE    sqlite or postgres (sqlite)
	-c           CONFIG_FILE      Config file
	-log-level   LOG_LEVEL        debug, info, warn, error (info)
	-hostname    PUBLIC_HOSTNAME  Host used in vote links (localhost)
	-open-days   OPEN_DAYS        mon..sun or 0-6 with 0=Monday (thu)
	-open-at     OPEN_AT          HH:MM voting opens (09:30)
	-close-at    CLOSE_AT         HH:MM voting closes (11:00)
	-tz          TIMEZONE         Schedule time zone (Local)
	-norepeat    NO_REPEAT_DAYS   Days a winner sits out (21)
	-tick        TICK_INTERVAL    Scheduler tick (30s)
	-smtp-host   SMTP_HOST        SMTP server; empty logs mail instead
	-smtp-port   SMTP_PORT        SMTP port (587)
	-smtp-user   SMTP_USER        SMTP user
	-smtp-pass   SMTP_PASSWORD    SMTP password
	-smtp-from   SMTP_FROM        Sender (SMTP user)
	-mail-pace   MAIL_PACE        Pause between open mails (0s)
	-admin-key   ADMIN_KEY        Admin key (required)
	-ip-salt     IP_HASH_SALT     Salt for ballot IP hashes (admin key)

# Config File

The file uses the lunch/smtp layout:

	{
	  "lunch": {
	    "hostname": "localhost", "dbfile": "lunch.db", "norepeat": 21,
	    "time_days": [3], "time_start": [9, 30], "time_end": [11, 0]
	  },
	  "smtp": {"server": "smtpserver", "port": 465, "user": "user", "pass": "password"}
	}

time_days counts from Monday = 0. Times may also be given as "HH:MM".

# Validation

ParseFlags returns an error if ADMIN_KEY is missing, if voting would not
open before it closes, or if any value fails to parse.
*/
package cliparse
