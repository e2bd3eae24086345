package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=arm64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"

	"notesum-backend/internal/bootstrap"
	"notesum-backend/internal/failure"
	"notesum-backend/internal/shared/config"
	"notesum-backend/internal/shared/server/respond"
	"notesum-backend/internal/shared/telemetry"
)

var (
	initOnce  sync.Once
	initErr   error
	ginLambda *ginadapter.GinLambdaV2
)

func initApp() {
	app, err := bootstrap.Build(config.Load())
	if err != nil {
		initErr = err
		return
	}
	ginLambda = ginadapter.NewV2(app.Router)
}

func handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	initOnce.Do(initApp)
	if initErr != nil || ginLambda == nil {
		fields := map[string]any{"path": req.RawPath, "request_id": req.RequestContext.RequestID}
		if initErr != nil {
			fields["error"] = initErr.Error()
		}
		telemetry.Error("lambda.bootstrap_failed", fields)
		return internalError(), nil
	}
	return ginLambda.ProxyWithContext(ctx, req)
}

// internalError mirrors the API error envelope so clients parse one shape.
func internalError() events.APIGatewayV2HTTPResponse {
	body, _ := json.Marshal(respond.ErrorResponse{
		Error: respond.ErrorBody{Code: "INTERNAL", Message: failure.MessageInternal},
	})
	return events.APIGatewayV2HTTPResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       string(body),
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

func main() {
	lambda.Start(handler)
}
