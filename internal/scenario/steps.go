package scenario

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/carqueue/carqueue/internal/cars"
	"github.com/carqueue/carqueue/internal/fixture"
)

// Step texts as they appear in the feature.
const (
	StepGiven = "Given a list of cars are added to car queue"
	StepWhen  = "When the queue list is returned"
	StepThen  = "Then the list contains the cars added"
)

// Run executes the scenario steps in order.
func Run(ctx context.Context, env *fixture.Environment) error {
	sent, err := Given(ctx, env)
	if err != nil {
		return err
	}
	messages, err := When(ctx, env)
	if err != nil {
		return err
	}
	return Then(ctx, env, sent, messages)
}

// Given loads the cars fixture and sends each car detail, recording the message id on the car.
func Given(ctx context.Context, env *fixture.Environment) (output []cars.Car, err error) {
	defer step(env.Log, StepGiven)()
	output, err = cars.Load(env.Settings.FixturePath)
	if err != nil {
		return nil, err
	}
	for index := range output {
		messageID, err := env.Client.Send(ctx, output[index].Detail)
		if err != nil {
			return nil, err
		}
		output[index].ID = messageID
		env.Log.Info("car details", slog.String("id", messageID), slog.Any("car_detail", output[index].Detail))
	}
	return output, nil
}

// When makes a single receive call.
func When(ctx context.Context, env *fixture.Environment) ([]types.Message, error) {
	defer step(env.Log, StepWhen)()
	return env.Client.Receive(ctx)
}

// Then checks every sent car was received with an identical body, deleting each matched message.
func Then(ctx context.Context, env *fixture.Environment, sent []cars.Car, messages []types.Message) error {
	defer step(env.Log, StepThen)()
	var found int
	for _, message := range messages {
		messageID := aws.ToString(message.MessageId)
		env.Log.Info("message body", slog.String("message_id", messageID), slog.String("body", aws.ToString(message.Body)))
		for _, car := range sent {
			if car.ID != messageID {
				continue
			}
			if err := compareBody(messageID, car.Detail, aws.ToString(message.Body)); err != nil {
				return err
			}
			env.Log.Info("delete message", slog.String("message_id", messageID))
			if err := env.Client.Delete(ctx, aws.ToString(message.ReceiptHandle)); err != nil {
				return err
			}
			found++
		}
	}
	if found != len(sent) {
		return &IncompleteError{Sent: len(sent), Found: found}
	}
	return nil
}

func step(log *slog.Logger, text string) func() {
	log.Info(fmt.Sprintf("Start Step: '%s'", text))
	return func() {
		log.Info(fmt.Sprintf("End Step: '%s'", text))
	}
}

func compareBody(messageID string, expected map[string]any, body string) error {
	var actual any
	if err := json.Unmarshal([]byte(body), &actual); err != nil {
		return &BodyMismatchError{MessageID: messageID, Diff: fmt.Sprintf("unable to decode body: %v", err)}
	}
	// normalize the expected detail through the same decoder
	normalized, err := normalizeJSON(expected)
	if err != nil {
		return &BodyMismatchError{MessageID: messageID, Diff: fmt.Sprintf("unable to normalize car detail: %v", err)}
	}
	if reflect.DeepEqual(normalized, actual) {
		return nil
	}
	return &BodyMismatchError{MessageID: messageID, Diff: diff(normalized, actual)}
}

func normalizeJSON(v any) (output any, err error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if err = json.Unmarshal(data, &output); err != nil {
		return nil, err
	}
	return output, nil
}

func diff(expected, actual any) string {
	output, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(marshalPrettyJSON(expected)),
		B:        difflib.SplitLines(marshalPrettyJSON(actual)),
		FromFile: "Expected",
		ToFile:   "Actual",
		Context:  1,
	})
	return output
}

func marshalPrettyJSON(v any) string {
	data, _ := json.MarshalIndent(v, "", "  ")
	return string(data)
}
