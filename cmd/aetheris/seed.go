package main

import (
	"context"
	"time"

	"github.com/poiesic/aetheris"
	"github.com/poiesic/aetheris/core"
	"github.com/poiesic/aetheris/retrieval"
)

// seedData loads the bundled sample corpus into the database: a small set
// of threat articles, a CMDB inventory slice, and taxonomy labels for the
// articles. The content is fixed so repeated seeding is idempotent (IDs
// derive from URLs and hostnames).
func seedData(ctx context.Context, db *aetheris.Database) (int, int, int, error) {
	now := time.Now().UTC()

	docs := []*core.Document{
		{
			Title:     "WebDAV zero-day exploited against Microsoft IIS servers",
			Text:      "A previously unknown WebDAV flaw is being used to compromise internet-facing Microsoft IIS deployments. Exploitation grants remote code execution before authentication.",
			Source:    "vendor-advisories",
			URL:       "https://intel.example/articles/webdav-zero-day",
			ScrapedAt: now.Add(-2 * time.Hour),
		},
		{
			Title:     "Ransomware crew targets logistics and manufacturing",
			Text:      "Operators encrypt file servers and delete backups before demanding payment. Initial access traced to exposed remote desktop services.",
			Source:    "news-feed",
			URL:       "https://intel.example/articles/ransomware-logistics",
			ScrapedAt: now.Add(-5 * time.Hour),
		},
		{
			Title:     "Phishing campaign harvests credentials from finance departments",
			Text:      "Invoice-themed email lures direct staff to fake sign-in portals. Harvested credentials are resold within hours.",
			Source:    "news-feed",
			URL:       "https://intel.example/articles/phishing-finance",
			ScrapedAt: now.Add(-8 * time.Hour),
		},
		{
			Title:     "Fortinet patches FortiGate VPN vulnerability",
			Text:      "Fortinet released fixes for a FortiGate SSL-VPN flaw under limited exploitation. Administrators should upgrade FortiOS immediately.",
			Source:    "vendor-advisories",
			URL:       "https://intel.example/articles/fortigate-vpn",
			ScrapedAt: now.Add(-26 * time.Hour),
		},
		{
			Title:     "Exchange servers probed for legacy vulnerabilities",
			Text:      "Scanning for unpatched Microsoft Exchange and Outlook Web Access endpoints has tripled this month.",
			Source:    "honeypot-network",
			URL:       "https://intel.example/articles/exchange-probing",
			ScrapedAt: now.Add(-30 * time.Hour),
		},
		{
			Title:     "Weekly threat landscape roundup",
			Text:      "Mixed activity across sectors with credential theft and commodity malware dominating reports.",
			Source:    "news-feed",
			URL:       "https://intel.example/articles/weekly-roundup",
			ScrapedAt: now.Add(-50 * time.Hour),
		},
	}

	assets := []*core.Asset{
		{Type: "server", Hostname: "web-01", OS: "Windows Server 2019", OSVersion: "1809",
			Software: []string{"IIS 10", "WebDAV"}, SecurityTools: "Defender",
			Location: "London", Department: "IT", Owner: "infrastructure", Posture: "internet-facing"},
		{Type: "server", Hostname: "mail-01", OS: "Windows Server 2016", OSVersion: "1607",
			Software: []string{"Exchange 2016", "Outlook Web Access"}, SecurityTools: "Defender",
			Location: "London", Department: "IT", Owner: "infrastructure", Posture: "internet-facing"},
		{Type: "firewall", Hostname: "fw-edge-01", OS: "FortiOS", OSVersion: "7.2",
			Software: []string{"FortiGate SSL-VPN"}, SecurityTools: "",
			Location: "New York", Department: "IT", Owner: "network", Posture: "perimeter"},
		{Type: "server", Hostname: "files-01", OS: "Windows Server 2022", OSVersion: "21H2",
			Software: []string{"SMB", "Backup Agent"}, SecurityTools: "CrowdStrike",
			Location: "Chicago", Department: "Operations", Owner: "infrastructure", Posture: "internal"},
		{Type: "laptop", Hostname: "fin-lt-204", OS: "Windows 11", OSVersion: "23H2",
			Software: []string{"Office", "Outlook"}, SecurityTools: "CrowdStrike",
			Location: "Berlin", Department: "Finance", Owner: "j.keller", Posture: "managed"},
		{Type: "laptop", Hostname: "hr-lt-118", OS: "macOS 14", OSVersion: "14.5",
			Software: []string{"Office"}, SecurityTools: "SentinelOne",
			Location: "Tokyo", Department: "HR", Owner: "a.sato", Posture: "managed"},
		{Type: "workstation", Hostname: "eng-ws-310", OS: "Ubuntu 22.04", OSVersion: "22.04.4",
			Software: []string{"Docker", "nginx"}, SecurityTools: "",
			Location: "Edinburgh", Department: "Engineering", Owner: "m.fraser", Posture: "managed"},
	}

	added, err := db.DocumentRepository().AddDocuments(ctx, docs...)
	if err != nil {
		return 0, 0, 0, err
	}
	if _, err := db.AssetRepository().AddAssets(ctx, assets...); err != nil {
		return 0, 0, 0, err
	}

	ref := func(i int) string { return retrieval.RecordRef(added[i].Id) }
	labels := []*core.TaxonomyLabel{
		{RecordRef: ref(0), Severity: []string{"critical"}, Impact: []string{"remote code execution"},
			Platform: []string{"windows"}, MitreTactics: []string{"initial-access"}, OS: "Windows"},
		{RecordRef: ref(1), Severity: []string{"high"}, Impact: []string{"data loss"},
			Actor: []string{"ransomware operators"}, Platform: []string{"windows"}, OS: "Windows"},
		{RecordRef: ref(2), Severity: []string{"medium"}, Impact: []string{"credential theft"},
			Platform: []string{"email"}, Department: "Finance"},
		{RecordRef: ref(3), Severity: []string{"high"}, Impact: []string{"network compromise"},
			Platform: []string{"network"}, MitreTactics: []string{"initial-access"}},
		{RecordRef: ref(4), Severity: []string{"medium"}, Platform: []string{"windows"},
			MitreTactics: []string{"reconnaissance"}, OS: "Windows"},
	}
	if err := db.LabelRepository().AddLabels(ctx, labels...); err != nil {
		return 0, 0, 0, err
	}

	return len(docs), len(assets), len(labels), nil
}
