// Package salonapi is the HTTP client for the salon persistence API.
package salonapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"salonbook/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	defaultTimeout = 10 * time.Second

	cacheKeyServices = "salon:services"
	cacheKeyBlocked  = "salon:blocked_times"
)

// Client calls the salon REST API. GET lookups for services and blocked times
// may be cached in Redis.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	redis    *redis.Client
	cacheTTL time.Duration
}

// BookingRequest is the submission body.
type BookingRequest struct {
	PhoneNumber      string   `json:"phoneNumber"`
	CustomerName     string   `json:"customerName"`
	SelectedDate     string   `json:"selectedDate"`
	SelectedTime     string   `json:"selectedTime"`
	SelectedServices []string `json:"selectedServices"`
	Notes            string   `json:"notes,omitempty"`
}

// VerifyResult is the upstream answer to a correct OTP.
type VerifyResult struct {
	IsExistingCustomer bool   `json:"isExistingCustomer"`
	CustomerName       string `json:"customerName,omitempty"`
}

type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// UseRedisCache configures optional Redis caching for GET endpoints.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

func (c *Client) ListServices(ctx context.Context) ([]models.Service, error) {
	var wrap struct {
		envelope
		Services []models.Service `json:"services"`
	}
	if c.readCache(ctx, cacheKeyServices, &wrap.Services) {
		return wrap.Services, nil
	}
	if err := c.doGet(ctx, c.baseURL+"/api/services", &wrap, &wrap.envelope); err != nil {
		return nil, err
	}
	c.writeCache(ctx, cacheKeyServices, wrap.Services)
	return wrap.Services, nil
}

func (c *Client) ListBlockedTimes(ctx context.Context) ([]models.BlockedTime, error) {
	var wrap struct {
		envelope
		BlockedTimes []models.BlockedTime `json:"blockedTimes"`
	}
	if c.readCache(ctx, cacheKeyBlocked, &wrap.BlockedTimes) {
		return wrap.BlockedTimes, nil
	}
	if err := c.doGet(ctx, c.baseURL+"/api/blocked-times", &wrap, &wrap.envelope); err != nil {
		return nil, err
	}
	c.writeCache(ctx, cacheKeyBlocked, wrap.BlockedTimes)
	return wrap.BlockedTimes, nil
}

// InvalidateBlockedTimes drops the cached block list.
func (c *Client) InvalidateBlockedTimes(ctx context.Context) {
	if c.redis != nil {
		_ = c.redis.Del(ctx, cacheKeyBlocked).Err()
	}
}

// AvailableTimes returns the occupancy of date as seen by actor. Never cached.
func (c *Client) AvailableTimes(ctx context.Context, date string, actor models.Actor) (*models.AvailableTimes, error) {
	q := url.Values{}
	q.Set("date", date)
	q.Set("userType", string(actor))

	var wrap struct {
		envelope
		models.AvailableTimes
	}
	if err := c.doGet(ctx, c.baseURL+"/api/available-times?"+q.Encode(), &wrap, &wrap.envelope); err != nil {
		return nil, err
	}
	out := wrap.AvailableTimes
	if out.Date == "" {
		out.Date = date
	}
	return &out, nil
}

// SubmitBooking posts a booking. idempotencyKey is sent so that a retried
// request is deduplicated upstream.
func (c *Client) SubmitBooking(ctx context.Context, req BookingRequest, idempotencyKey string) (*models.Reservation, error) {
	var wrap struct {
		envelope
		Data models.Reservation `json:"data"`
	}
	headers := map[string]string{}
	if idempotencyKey != "" {
		headers["Idempotency-Key"] = idempotencyKey
	}
	if err := c.doPost(ctx, c.baseURL+"/api/bookings", req, headers, &wrap, &wrap.envelope); err != nil {
		return nil, err
	}
	return &wrap.Data, nil
}

// AdminBookings lists bookings between start and end inclusive.
func (c *Client) AdminBookings(ctx context.Context, start, end string, view models.ViewMode) ([]models.Booking, error) {
	q := url.Values{}
	q.Set("startDate", start)
	q.Set("endDate", end)
	q.Set("view", string(view))

	var wrap struct {
		envelope
		Bookings []models.Booking `json:"bookings"`
	}
	if err := c.doGet(ctx, c.baseURL+"/api/admin/bookings?"+q.Encode(), &wrap, &wrap.envelope); err != nil {
		return nil, err
	}
	return wrap.Bookings, nil
}

func (c *Client) SendOTP(ctx context.Context, phone, name string) error {
	body := map[string]string{"phoneNumber": phone, "customerName": name}
	var env envelope
	return c.doPost(ctx, c.baseURL+"/api/otp/send", body, nil, &env, &env)
}

func (c *Client) VerifyOTP(ctx context.Context, phone, code string) (*VerifyResult, error) {
	body := map[string]string{"phoneNumber": phone, "otpCode": code}
	var wrap struct {
		envelope
		VerifyResult
	}
	if err := c.doPost(ctx, c.baseURL+"/api/otp/verify", body, nil, &wrap, &wrap.envelope); err != nil {
		return nil, err
	}
	return &wrap.VerifyResult, nil
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.cacheTTL).Err()
}

func (c *Client) doGet(ctx context.Context, endpoint string, out any, env *envelope) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	c.addHeaders(req)
	return c.do(req, out, env)
}

func (c *Client) doPost(ctx context.Context, endpoint string, body any, headers map[string]string, out any, env *envelope) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	c.addHeaders(req)
	return c.do(req, out, env)
}

func (c *Client) do(req *http.Request, out any, env *envelope) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("salon api: read body: %w", err)
	}

	if resp.StatusCode >= 300 {
		herr := &HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
		}
		var e envelope
		if json.Unmarshal(body, &e) == nil {
			herr.Code, herr.Message = e.Code, e.Error
		}
		if herr.Message == "" {
			herr.Message = http.StatusText(resp.StatusCode)
		}
		return herr
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("salon api: decode response: %w", err)
	}
	if !env.Success {
		return &HTTPError{StatusCode: resp.StatusCode, Code: env.Code, Message: env.Error}
	}
	return nil
}

func (c *Client) addHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}
}
