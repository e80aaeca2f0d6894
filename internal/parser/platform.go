package parser

import (
	"strings"

	"learnrag/internal/domain"
)

// platformRules are checked in order; the first rule with a matching
// substring wins.
var platformRules = []struct {
	platform domain.Platform
	hosts    []string
}{
	{domain.PlatformYouTube, []string{"youtube.com", "youtu.be"}},
	{domain.PlatformGitHub, []string{"github.com"}},
	{domain.PlatformCoursera, []string{"coursera.org"}},
	{domain.PlatformUdemy, []string{"udemy.com"}},
}

// ClassifyPlatform derives the platform of a resource from its URL.
func ClassifyPlatform(url string) domain.Platform {
	lower := strings.ToLower(url)
	for _, rule := range platformRules {
		for _, host := range rule.hosts {
			if strings.Contains(lower, host) {
				return rule.platform
			}
		}
	}
	return domain.PlatformWebsite
}
