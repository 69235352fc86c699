package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/medibook/clinic-booking/cmd/mainconfig"
	"github.com/medibook/clinic-booking/internal/app/bootstrap"
	appconfig "github.com/medibook/clinic-booking/internal/config"
	"github.com/medibook/clinic-booking/internal/notify"
	"github.com/medibook/clinic-booking/internal/observability/metrics"
	"github.com/medibook/clinic-booking/pkg/logging"
)

var corsHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Headers": "authorization, x-client-info, apikey, content-type",
	"Content-Type":                 "application/json",
}

func main() {
	ctx := context.Background()
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	var awsCfg *aws.Config
	if mainconfig.NeedsAWS(cfg) {
		loaded, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			panic(err)
		}
		awsCfg = &loaded
	}
	sender, provider, reason := bootstrap.BuildEmailSender(cfg, awsCfg, logger)
	if reason != "" {
		logger.Warn("email provider unavailable; using stub sender", "reason", reason)
	}
	logger.Info("notification function ready", "provider", provider)

	notifier := notify.NewDispatcher(sender, metrics.NewClinicMetrics(prometheus.NewRegistry()), logger)
	lambda.Start(func(ctx context.Context, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		return handle(ctx, notifier, logger, evt)
	})
}

func handle(ctx context.Context, notifier notify.Notifier, logger *logging.Logger, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	method := strings.ToUpper(strings.TrimSpace(evt.RequestContext.HTTP.Method))
	switch method {
	case http.MethodOptions:
		return respond(http.StatusOK, ""), nil
	case http.MethodPost:
	default:
		return respond(http.StatusMethodNotAllowed, ""), nil
	}

	body, err := decodeBody(evt)
	if err != nil {
		return errorResponse(logger, "", err), nil
	}
	var req notify.Request
	if err := json.Unmarshal(body, &req); err != nil {
		return errorResponse(logger, "", errors.New("invalid request body: "+err.Error())), nil
	}

	res, err := notifier.Notify(ctx, req)
	if err != nil {
		return errorResponse(logger, req.Type, err), nil
	}
	out, err := json.Marshal(res)
	if err != nil {
		return errorResponse(logger, req.Type, err), nil
	}
	return respond(http.StatusOK, string(out)), nil
}

func decodeBody(evt events.APIGatewayV2HTTPRequest) ([]byte, error) {
	if !evt.IsBase64Encoded {
		return []byte(evt.Body), nil
	}
	return base64.StdEncoding.DecodeString(evt.Body)
}

func errorResponse(logger *logging.Logger, kind notify.Type, err error) events.APIGatewayV2HTTPResponse {
	logger.Error("notification function failed", "type", kind, "error", err)
	out, _ := json.Marshal(map[string]string{"error": err.Error()})
	return respond(http.StatusInternalServerError, string(out))
}

func respond(status int, body string) events.APIGatewayV2HTTPResponse {
	headers := make(map[string]string, len(corsHeaders))
	for k, v := range corsHeaders {
		headers[k] = v
	}
	return events.APIGatewayV2HTTPResponse{StatusCode: status, Headers: headers, Body: body}
}
