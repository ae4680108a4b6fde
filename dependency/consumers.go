package dependency

import (
	"github.com/nemaks/recordstore/infrastructure/queue"
	"go.uber.org/zap"
)

func (c *Container) initConsumers() {
	if !c.Config.KafkaEnabled() {
		c.Logger.Info("Kafka brokers not configured, consumers disabled")
		return
	}

	kafkaCfg := c.Config.Kafka
	consumerLogger := c.Logger.Named("kafka")

	if kafkaCfg.AuditTopic != "" {
		reader := queue.NewKafkaReader(kafkaCfg.Brokers, kafkaCfg.AuditTopic, kafkaCfg.GroupID)
		c.AuditConsumer = queue.NewAuditBatchConsumer(
			reader,
			kafkaCfg.AuditTopic,
			c.AuditUC,
			kafkaCfg.BatchSize,
			kafkaCfg.FlushInterval,
			consumerLogger,
			c.MetricsManager,
		)

		c.consumers.Add(1)
		go func() {
			defer c.consumers.Done()
			c.AuditConsumer.Listen(c.ctx)
		}()
	}

	if kafkaCfg.MessageTopic != "" {
		reader := queue.NewKafkaReader(kafkaCfg.Brokers, kafkaCfg.MessageTopic, kafkaCfg.GroupID)
		c.IndexConsumer = queue.NewKafkaConsumer(
			reader,
			kafkaCfg.MessageTopic,
			queue.NewIndexHandler(c.SearchUC),
			consumerLogger,
			c.MetricsManager,
		)

		c.consumers.Add(1)
		go func() {
			defer c.consumers.Done()
			c.IndexConsumer.Listen(c.ctx)
		}()
	}

	c.Logger.Info("Kafka consumers started",
		zap.Strings("brokers", kafkaCfg.Brokers),
		zap.String("auditTopic", kafkaCfg.AuditTopic),
		zap.String("messageTopic", kafkaCfg.MessageTopic),
	)
}

// closeConsumers waits for the listeners to return and then closes their readers.
func (c *Container) closeConsumers() {
	c.consumers.Wait()

	if c.AuditConsumer != nil {
		if err := c.AuditConsumer.Close(); err != nil {
			c.Logger.Error("failed to close audit consumer", zap.Error(err))
		}
	}
	if c.IndexConsumer != nil {
		if err := c.IndexConsumer.Close(); err != nil {
			c.Logger.Error("failed to close index consumer", zap.Error(err))
		}
	}
}
