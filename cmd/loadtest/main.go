package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Result 记录单次请求的 HTTP 结果，便于聚合统计。
type Result struct {
	Status int
	Body   string
	Err    error
}

// 超卖冒烟：N 个并发创建请求抢同一商品，每单数量 1。
// 可用库存为 S 时，成功数不应超过 S，其余应得到 400 stock_insuficiente。
func main() {
	baseURL := flag.String("base", "http://localhost:8080", "server base url")
	customerID := flag.Uint("customer", 1, "customer id")
	vehicleID := flag.Uint("vehicle", 1, "vehicle id")
	productID := flag.Uint("product", 1, "product id")
	priceCents := flag.Int64("price", 5000, "unit price in cents")

	nOrders := flag.Int("orders", 100, "concurrent create requests")
	concurrency := flag.Int("c", 25, "max concurrency")
	flag.Parse()

	client := &http.Client{Timeout: 10 * time.Second}

	fmt.Printf("start oversell test: product=%d orders=%d concurrency=%d\n", *productID, *nOrders, *concurrency)
	results := runCreate(client, *baseURL, *customerID, *vehicleID, *productID, *priceCents, *nOrders, *concurrency)
	printSummary("oversell", results)

	// 抢完后看冗余库存是否被推导为非负值。
	stock, err := getStock(client, *baseURL, *productID)
	if err != nil {
		fmt.Println("stock check err:", err)
	} else {
		fmt.Println("final derived stock:", stock)
		if stock < 0 {
			fmt.Println("OVERSOLD: derived stock is negative")
		}
	}
}

func runCreate(client *http.Client, baseURL string, customerID, vehicleID, productID uint, priceCents int64, total, concurrency int) []Result {
	type item struct {
		ItemID      uint   `json:"item_id"`
		Tipo        string `json:"tipo"`
		Cantidad    int    `json:"cantidad"`
		PrecioCents int64  `json:"precio_cents"`
	}
	type req struct {
		RequestID  string `json:"request_id"`
		CustomerID uint   `json:"customer_id"`
		VehicleID  uint   `json:"vehicle_id"`
		Items      []item `json:"items"`
	}

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	results := make([]Result, total)

	for i := 0; i < total; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			body := req{
				RequestID:  uuid.NewString(),
				CustomerID: customerID,
				VehicleID:  vehicleID,
				Items: []item{{
					ItemID: productID, Tipo: "producto", Cantidad: 1, PrecioCents: priceCents,
				}},
			}
			results[idx] = createOnce(client, baseURL, uint(idx+1), body)
		}(i)
	}

	wg.Wait()
	return results
}

func createOnce(client *http.Client, baseURL string, userID uint, body any) Result {
	b, _ := json.Marshal(body)
	url := fmt.Sprintf("%s/api/ordenes", baseURL)
	httpReq, _ := http.NewRequest(http.MethodPost, url, bytes.NewReader(b))
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-User-ID", fmt.Sprintf("%d", userID))

	resp, err := client.Do(httpReq)
	if err != nil {
		return Result{Err: err}
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	return Result{Status: resp.StatusCode, Body: string(respBody)}
}

// printSummary 聚合输出不同状态码分布。
func printSummary(name string, results []Result) {
	count := map[int]int{}
	errCount := 0
	for _, r := range results {
		if r.Err != nil {
			errCount++
			continue
		}
		count[r.Status]++
	}
	fmt.Printf("[%s] http status summary:\n", name)
	for _, code := range []int{200, 400, 404, 409, 429, 500} {
		if count[code] > 0 {
			fmt.Printf("  %d -> %d\n", code, count[code])
		}
	}
	if errCount > 0 {
		fmt.Printf("  errors -> %d\n", errCount)
	}
}

// getStock 查询商品冗余库存，用于压测后校验是否出现超卖。
func getStock(client *http.Client, baseURL string, productID uint) (int64, error) {
	resp, err := client.Get(fmt.Sprintf("%s/api/productos", baseURL))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return 0, fmt.Errorf("status=%d body=%s", resp.StatusCode, string(b))
	}

	var out struct {
		Code int `json:"code"`
		Data []struct {
			ID    uint  `json:"id"`
			Stock int64 `json:"stock"`
		} `json:"data"`
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return 0, err
	}
	for _, p := range out.Data {
		if p.ID == productID {
			return p.Stock, nil
		}
	}
	return 0, fmt.Errorf("product %d not in listing", productID)
}
