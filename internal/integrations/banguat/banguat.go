package banguat

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/beevik/etree"
	"github.com/clubcashin/credit-service/internal/config"
	"github.com/sirupsen/logrus"
)

// Client handles integration with Banco de Guatemala's exchange-rate
// web service
type Client struct {
	url    string
	client *http.Client
	log    *logrus.Logger
}

// NewClient initializes a new Banguat client
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		url: cfg.BanguatURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// buildSOAPRequest creates a SOAP request for the daily reference rate
func (c *Client) buildSOAPRequest() string {
	return `<?xml version="1.0" encoding="utf-8"?>
		<soap12:Envelope xmlns:soap12="http://www.w3.org/2003/05/soap-envelope">
			<soap12:Body>
				<TipoCambioDia xmlns="http://www.banguat.gob.gt/variables/ws/" />
			</soap12:Body>
		</soap12:Envelope>`
}

// sendRequest sends the SOAP request to Banguat
func (c *Client) sendRequest(soapRequest string) ([]byte, error) {
	req, err := http.NewRequest("POST", c.url, bytes.NewBuffer([]byte(soapRequest)))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/soap+xml; charset=utf-8")
	req.Header.Set("SOAPAction", "http://www.banguat.gob.gt/variables/ws/TipoCambioDia")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %v", err)
	}

	c.log.Debugf("Banguat XML response: %s", string(body))

	return body, nil
}

// parseXMLResponse extracts the reference rate from the XML response
func (c *Client) parseXMLResponse(rawBody []byte) (float64, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(rawBody); err != nil {
		return 0, fmt.Errorf("failed to parse XML: %v", err)
	}

	varElements := doc.FindElements("//TipoCambioDiaResult/CambioDolar/VarDolar")
	if len(varElements) == 0 {
		return 0, fmt.Errorf("no exchange rate data found in XML")
	}

	rateElement := varElements[0].FindElement("./referencia")
	if rateElement == nil {
		return 0, fmt.Errorf("referencia element not found in XML")
	}

	var rate float64
	if _, err := fmt.Sscanf(rateElement.Text(), "%f", &rate); err != nil {
		return 0, fmt.Errorf("failed to parse rate: %v", err)
	}

	return rate, nil
}

// GetReferenceRate retrieves the current GTQ/USD reference rate
func (c *Client) GetReferenceRate() (float64, error) {
	soapRequest := c.buildSOAPRequest()
	body, err := c.sendRequest(soapRequest)
	if err != nil {
		return 0, err
	}

	rate, err := c.parseXMLResponse(body)
	if err != nil {
		return 0, err
	}

	c.log.Infof("Retrieved GTQ/USD reference rate: %.5f", rate)
	return rate, nil
}
