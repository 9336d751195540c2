// cmd/token/main.go
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/G-alileo/e-visa-application-system/internal/config"
	"github.com/G-alileo/e-visa-application-system/internal/domain"
	"github.com/G-alileo/e-visa-application-system/internal/utils"
)

// Issues a signed access token for local testing, since identity is owned
// by an external provider in deployed environments.
func main() {
	role := flag.String("role", string(domain.RoleApplicant), "APPLICANT, OFFICER, SUPERVISOR or ADMIN")
	id := flag.String("id", "", "actor id (random when empty)")
	email := flag.String("email", "dev@example.com", "actor email")
	ttl := flag.Int("ttl", 0, "token lifetime in hours (defaults to JWT_ACCESS_TTL)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	utils.SetJWTSecret(cfg.JWT.SecretKey)
	utils.SetJWTIssuer(cfg.JWT.Issuer)

	actorID := uuid.New()
	if *id != "" {
		actorID, err = uuid.Parse(*id)
		if err != nil {
			logrus.WithError(err).Fatal("Invalid actor id")
		}
	}

	actor := domain.Actor{ID: actorID, Email: *email, Role: domain.Role(strings.ToUpper(*role))}
	if !actor.Role.Valid() {
		fmt.Fprintf(os.Stderr, "unknown role %q\n", *role)
		os.Exit(2)
	}

	hours := *ttl
	if hours <= 0 {
		hours = cfg.JWT.AccessTokenTTL
	}
	token, err := utils.GenerateJWT(actor, hours)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to sign token")
	}
	fmt.Println(token)
}
