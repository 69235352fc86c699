package bootstrap

import (
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	"github.com/medibook/clinic-booking/internal/archive"
	appconfig "github.com/medibook/clinic-booking/internal/config"
	"github.com/medibook/clinic-booking/internal/dashboard"
	"github.com/medibook/clinic-booking/internal/notify"
	"github.com/medibook/clinic-booking/pkg/logging"
)

// BuildEmailSender picks the delivery provider named by EMAIL_PROVIDER. It
// always returns a sender: when the preferred provider is not usable it falls
// back to the stub and explains why in reason.
func BuildEmailSender(cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) (notify.EmailSender, string, string) {
	if logger == nil {
		logger = logging.Default()
	}
	stub := notify.NewStubEmailSender(logger)
	if cfg == nil {
		return stub, "stub", "missing config"
	}

	switch strings.ToLower(strings.TrimSpace(cfg.EmailProvider)) {
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.EmailFromAddress,
			FromName:  cfg.EmailFromName,
		}, logger)
		if sender == nil {
			return stub, "stub", "SENDGRID_API_KEY not set"
		}
		return sender, "sendgrid", ""
	case "ses":
		if awsCfg == nil {
			return stub, "stub", "aws config unavailable"
		}
		sender := notify.NewSESSender(sesv2.NewFromConfig(*awsCfg), notify.SESConfig{
			FromEmail: cfg.EmailFromAddress,
			FromName:  cfg.EmailFromName,
		}, logger)
		return sender, "ses", ""
	case "", "stub":
		return stub, "stub", ""
	default:
		return stub, "stub", "unknown EMAIL_PROVIDER " + cfg.EmailProvider
	}
}

// BuildReportArchive returns the S3 archive for CSV exports, or nil when no
// bucket is configured.
func BuildReportArchive(cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) dashboard.ReportArchiver {
	if cfg == nil || strings.TrimSpace(cfg.ReportsBucket) == "" || awsCfg == nil {
		return nil
	}
	client := s3.NewFromConfig(*awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.AWSEndpointOverride != ""
	})
	store := archive.NewStore(client, cfg.ReportsBucket, logger)
	if !store.Enabled() {
		return nil
	}
	return store
}
