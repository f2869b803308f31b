package messaging

import (
	"github.com/oksasatya/user-service/config"
	"github.com/oksasatya/user-service/pkg/helpers"
)

// UserCreatedTopology is the exchange, queue and dead-letter layout shared by the API,
// the seeder and the event worker.
func UserCreatedTopology(cfg *config.Config) helpers.RabbitTopology {
	return helpers.RabbitTopology{
		Exchange:           cfg.RabbitMQUserExchange,
		Queue:              cfg.RabbitMQUserCreatedQueue,
		BindingKey:         cfg.RabbitMQUserCreatedRoutingKey,
		DeadLetterExchange: cfg.RabbitMQUserDLX,
		DeadLetterQueue:    cfg.RabbitMQUserDeadLetterQueue,
	}
}
