package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

const (
	apiURL        = "http://localhost:8080/order"
	totalRequests = 50
	itemID        = "apple"
	warehouseID   = "wh_amer"
	customerID    = "loadgen"
)

type orderItem struct {
	ItemID      string `json:"item_id"`
	WarehouseID string `json:"warehouse_id"`
	Quantity    int    `json:"quantity"`
}

type orderRequest struct {
	CustomerID string      `json:"customer_id"`
	Items      []orderItem `json:"items"`
}

func main() {
	payload, err := json.Marshal(orderRequest{
		CustomerID: customerID,
		Items:      []orderItem{{ItemID: itemID, WarehouseID: warehouseID, Quantity: 1}},
	})
	if err != nil {
		log.Fatalf("marshal payload: %v", err)
	}

	client := &http.Client{Timeout: 5 * time.Second}

	var queued atomic.Int32
	var failed atomic.Int32
	var wg sync.WaitGroup

	start := time.Now()
	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := client.Post(apiURL, "application/json", bytes.NewReader(payload))
			if err != nil {
				failed.Add(1)
				return
			}
			res.Body.Close()
			if res.StatusCode == http.StatusAccepted {
				queued.Add(1)
			} else {
				failed.Add(1)
			}
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	fmt.Printf("requests:  %d\n", totalRequests)
	fmt.Printf("queued:    %d\n", queued.Load())
	fmt.Printf("failed:    %d\n", failed.Load())
	fmt.Printf("elapsed:   %v\n", elapsed)
}
