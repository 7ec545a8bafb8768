package worker

import (
	"encoding/json"

	"github.com/streadway/amqp"

	"text2phenotype.com/kg/rmq"
	"text2phenotype.com/kg/tasks"
)

const (
	messageWorkType = "knowledge_graph"
	messageSender   = "kg"
	messageVersion  = "1"
)

// Message announces a finished run.
type Message struct {
	WorkType       string           `json:"work_type"`
	RedisKey       string           `json:"redis_key"`
	Sender         string           `json:"sender"`
	Version        string           `json:"version"`
	Status         tasks.TaskStatus `json:"status"`
	OutputLocation string           `json:"output_location"`
	Triples        int              `json:"triples"`
	Nodes          int              `json:"nodes"`
	Edges          int              `json:"edges"`
	Error          string           `json:"error,omitempty"`
}

func newMessage(run *Run, report *Report, runErr error) Message {
	message := Message{
		WorkType:       messageWorkType,
		RedisKey:       run.redisKey,
		Sender:         messageSender,
		Version:        messageVersion,
		Status:         tasks.TaskStatusCompletedSuccess,
		OutputLocation: run.outputLocation,
	}
	if report != nil {
		message.Status = report.Status()
		message.Triples = report.Triples
		message.Nodes = report.Graph.Nodes
		message.Edges = report.Graph.Edges
	}
	if runErr != nil {
		message.Status = tasks.TaskStatusFailed
		message.Error = runErr.Error()
	}
	return message
}

type rmqTransactions interface {
	publishRunFinished(run *Run, report *Report, runErr error) error
	close()
}

type rmqClientWrapper struct {
	rmqClient *rmq.Client
}

func (wrapper *rmqClientWrapper) close() {
	wrapper.rmqClient.Close()
}

func (wrapper *rmqClientWrapper) publishRunFinished(run *Run, report *Report, runErr error) error {
	b, err := json.Marshal(newMessage(run, report, runErr))
	if err != nil {
		return err
	}
	return wrapper.rmqClient.Publish(
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         b,
		},
	)
}

type noopRMQ struct{}

func (noopRMQ) publishRunFinished(*Run, *Report, error) error { return nil }

func (noopRMQ) close() {}
