// Command token issues development access tokens signed with the server secret.
package main

import (
	"dm-lab/auth"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gookit/color"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Secret string `envconfig:"JWT_SECRET" required:"true"`
	Issuer string `envconfig:"JWT_ISSUER" default:"dm-lab"`
	// TOKEN_COLOURS enables the colorized header
	Colours bool `envconfig:"TOKEN_COLOURS" default:"true"`
}

func main() {
	userID := flag.String("user", "", "User id, a random one when empty")
	username := flag.String("name", "", "Username carried by the token")
	roles := flag.String("roles", "user", "Comma separated roles")
	ttl := flag.Duration("ttl", 24*time.Hour, "Token lifetime")
	flag.Parse()

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		log.Fatal("config error: ", err)
	}

	token, identity, err := issue(config, *userID, *username, *roles, *ttl)
	if err != nil {
		log.Fatal(err)
	}

	header := fmt.Sprintf("  ====== token for %s ======", identity.UserID)
	if config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	fmt.Fprintln(os.Stderr, header)
	fmt.Println(token)
}

func issue(config Config, userID, username, roles string, ttl time.Duration) (string, auth.Identity, error) {
	if userID == "" {
		userID = uuid.NewString()
	}
	identity := auth.Identity{UserID: userID, Username: username}
	for _, role := range strings.Split(roles, ",") {
		if role = strings.TrimSpace(role); role != "" {
			identity.Roles = append(identity.Roles, role)
		}
	}
	if err := auth.ValidateIdentity(identity); err != nil {
		return "", auth.Identity{}, err
	}
	token, err := auth.NewJWTVerifier([]byte(config.Secret), config.Issuer).GenerateToken(identity, ttl)
	if err != nil {
		return "", auth.Identity{}, err
	}
	return token, identity, nil
}
